package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
)

func newTicket(t *testing.T, store *MemoryTicketStore) *model.Ticket {
	t.Helper()
	ticket := &model.Ticket{
		Email:   "a@b.com",
		Subject: "Cannot login",
		Body:    "Password reset loop",
		UserID:  "user-1",
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	return ticket
}

func TestCreateDefaults(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	if ticket.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if ticket.Status != model.TicketStatusOpen {
		t.Fatalf("status = %q, want open", ticket.Status)
	}
	if ticket.ProcessingStatus != model.ProcessingWaiting {
		t.Fatalf("processing_status = %q, want waiting", ticket.ProcessingStatus)
	}
}

func TestMarkProcessingAdvancesOnlyFromWaiting(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	ctx := context.Background()

	if err := store.MarkProcessing(ctx, ticket.ID); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	got, _ := store.GetByID(ctx, ticket.ID)
	if got.ProcessingStatus != model.ProcessingActive {
		t.Fatalf("processing_status = %q, want processing", got.ProcessingStatus)
	}
	// Everything else is untouched.
	if got.Email != ticket.Email || got.Subject != ticket.Subject || got.Body != ticket.Body {
		t.Fatalf("mark processing changed unrelated fields")
	}
	if got.Priority != nil || got.Description != nil || got.RawJSON != nil {
		t.Fatalf("mark processing set derived fields")
	}

	// A duplicate trigger fails closed.
	if err := store.MarkProcessing(ctx, ticket.ID); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("duplicate mark processing: got %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteGuardsPreviousState(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	ctx := context.Background()

	// Not yet processing: the callback arrived before the relay update.
	err := store.Complete(ctx, ticket.ID, "summary", model.PriorityLow, `{"raw":true}`)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("complete from waiting: got %v, want ErrInvalidTransition", err)
	}

	if err := store.MarkProcessing(ctx, ticket.ID); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := store.Complete(ctx, ticket.ID, "summary", model.PriorityHigh, `{"raw":true}`); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := store.GetByID(ctx, ticket.ID)
	if got.ProcessingStatus != model.ProcessingCompleted {
		t.Fatalf("processing_status = %q, want completed", got.ProcessingStatus)
	}
	if got.Description == nil || *got.Description != "summary" {
		t.Fatalf("description not set")
	}
	if got.Priority == nil || *got.Priority != model.PriorityHigh {
		t.Fatalf("priority not set")
	}
	if got.RawJSON == nil || *got.RawJSON != `{"raw":true}` {
		t.Fatalf("raw_json not set")
	}

	// Duplicate callback fails closed and leaves stored data intact.
	err = store.Complete(ctx, ticket.ID, "other", model.PriorityLow, `{"raw":false}`)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("duplicate complete: got %v, want ErrInvalidTransition", err)
	}
	got, _ = store.GetByID(ctx, ticket.ID)
	if *got.Description != "summary" || *got.Priority != model.PriorityHigh {
		t.Fatalf("duplicate callback overwrote completed data")
	}
}

func TestCompleteRejectsInvalidPriority(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	ctx := context.Background()
	if err := store.MarkProcessing(ctx, ticket.ID); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := store.Complete(ctx, ticket.ID, "summary", "urgent", "{}"); !errors.Is(err, errs.ErrSchemaValidation) {
		t.Fatalf("complete with bad priority: got %v, want ErrSchemaValidation", err)
	}
}

func TestMarkFailedIsTerminal(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	ctx := context.Background()

	if err := store.MarkFailed(ctx, ticket.ID, "delivery refused"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	got, _ := store.GetByID(ctx, ticket.ID)
	if got.ProcessingStatus != model.ProcessingFailed {
		t.Fatalf("processing_status = %q, want failed", got.ProcessingStatus)
	}
	if got.FailureReason != "delivery refused" {
		t.Fatalf("failure_reason = %q", got.FailureReason)
	}

	// No regression out of a terminal state.
	if err := store.MarkProcessing(ctx, ticket.ID); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("mark processing after failed: got %v, want ErrInvalidTransition", err)
	}
	if err := store.MarkFailed(ctx, ticket.ID, "again"); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("mark failed twice: got %v, want ErrInvalidTransition", err)
	}
}

func TestOwnershipEnforcedForUserUpdates(t *testing.T) {
	store := NewMemoryTicketStore()
	ticket := newTicket(t, store)
	ctx := context.Background()

	if _, err := store.Update(ctx, ticket.ID, "someone-else", map[string]interface{}{"subject": "hijacked"}); !errors.Is(err, errs.ErrNotOwner) {
		t.Fatalf("update by non-owner: got %v, want ErrNotOwner", err)
	}
	if err := store.Delete(ctx, ticket.ID, "someone-else"); !errors.Is(err, errs.ErrNotOwner) {
		t.Fatalf("delete by non-owner: got %v, want ErrNotOwner", err)
	}

	// Pipeline callers pass an empty user id and are exempt.
	if _, err := store.Update(ctx, ticket.ID, "", map[string]interface{}{"subject": "service edit"}); err != nil {
		t.Fatalf("service update: %v", err)
	}
	if err := store.Delete(ctx, ticket.ID, "user-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := store.GetByID(ctx, ticket.ID); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Fatalf("get after delete: got %v, want ErrTicketNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	for _, email := range []string{"a@b.com", "c@d.com", "a@b.com"} {
		if err := store.Create(ctx, &model.Ticket{Email: email, Subject: "s", Body: "b"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	items, total, err := store.List(ctx, map[string]interface{}{"email = ?": "a@b.com"}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("list filtered: total=%d len=%d, want 2/2", total, len(items))
	}
	items, total, err = store.List(ctx, nil, 1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("list paginated: total=%d len=%d, want 3/1", total, len(items))
	}
}
