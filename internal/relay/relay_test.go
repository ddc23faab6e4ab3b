package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/inbound"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/postmark"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
)

func startTicket(t *testing.T, store *service.MemoryTicketStore) *model.Ticket {
	t.Helper()
	ticket := &model.Ticket{Email: "a@b.com", Subject: "Cannot login", Body: "reset loop"}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	return ticket
}

func TestDispatchMarksProcessing(t *testing.T) {
	var sent postmark.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/email" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Postmark-Server-Token") != "token-1" {
			t.Errorf("missing server token")
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := service.NewMemoryTicketStore()
	ticket := startTicket(t, store)
	r := New(postmark.NewClient(srv.URL, "token-1"), store, nil, "", "inbound@parse.example.com")

	if err := r.Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.ProcessingStatus != model.ProcessingActive {
		t.Fatalf("processing_status = %q, want processing", got.ProcessingStatus)
	}
	if sent.From != "a@b.com" || sent.To != "inbound@parse.example.com" {
		t.Fatalf("message addressing: %+v", sent)
	}
	if sent.MessageStream != "inbound" {
		t.Fatalf("message stream = %q", sent.MessageStream)
	}
	// The text body carries the round-trip envelope.
	var env inbound.Envelope
	if err := json.Unmarshal([]byte(sent.TextBody), &env); err != nil {
		t.Fatalf("text body is not an envelope: %v", err)
	}
	if env.TicketID != ticket.ID {
		t.Fatalf("envelope ticket id = %q, want %q", env.TicketID, ticket.ID)
	}
}

func TestDispatchFromOverride(t *testing.T) {
	var sent postmark.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
	}))
	defer srv.Close()

	store := service.NewMemoryTicketStore()
	ticket := startTicket(t, store)
	r := New(postmark.NewClient(srv.URL, "t"), store, nil, "service@tickets.example.com", "inbound@parse.example.com")
	if err := r.Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent.From != "service@tickets.example.com" {
		t.Fatalf("from = %q, want configured service address", sent.From)
	}
}

func TestDispatchDeliveryFailureMarksFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ErrorCode": 300, "Message": "Invalid 'From' address"})
	}))
	defer srv.Close()

	store := service.NewMemoryTicketStore()
	ticket := startTicket(t, store)
	r := New(postmark.NewClient(srv.URL, "t"), store, nil, "", "inbound@parse.example.com")

	if err := r.Dispatch(context.Background(), ticket); err == nil {
		t.Fatalf("expected dispatch error")
	}
	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.ProcessingStatus != model.ProcessingFailed {
		t.Fatalf("processing_status = %q, want failed", got.ProcessingStatus)
	}
	if got.FailureReason == "" {
		t.Fatalf("failure_reason not recorded")
	}
}

func TestDispatchDuplicateTriggerIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	store := service.NewMemoryTicketStore()
	ticket := startTicket(t, store)
	r := New(postmark.NewClient(srv.URL, "t"), store, nil, "", "inbound@parse.example.com")

	if err := r.Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	// The second trigger sends again but must not fail or regress state.
	if err := r.Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.ProcessingStatus != model.ProcessingActive {
		t.Fatalf("processing_status = %q, want processing", got.ProcessingStatus)
	}
}
