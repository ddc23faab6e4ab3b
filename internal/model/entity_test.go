package model

import "testing"

func TestValidPriority(t *testing.T) {
	for _, p := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		if !ValidPriority(p) {
			t.Fatalf("%q should be valid", p)
		}
	}
	for _, p := range []Priority{"", "urgent", "HIGH", "critical"} {
		if ValidPriority(p) {
			t.Fatalf("%q should be invalid", p)
		}
	}
}

func TestProcessingStatusTerminal(t *testing.T) {
	if ProcessingWaiting.Terminal() || ProcessingActive.Terminal() {
		t.Fatalf("in-flight states must not be terminal")
	}
	if !ProcessingCompleted.Terminal() || !ProcessingFailed.Terminal() {
		t.Fatalf("completed and failed are terminal")
	}
}

func TestTicketBeforeCreateDefaults(t *testing.T) {
	ticket := &Ticket{Email: "a@b.com", Subject: "s"}
	if err := ticket.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if ticket.ID == "" {
		t.Fatalf("id not assigned")
	}
	if ticket.Status != TicketStatusOpen {
		t.Fatalf("status = %q", ticket.Status)
	}
	if ticket.ProcessingStatus != ProcessingWaiting {
		t.Fatalf("processing_status = %q", ticket.ProcessingStatus)
	}

	// Explicit states are preserved.
	ticket = &Ticket{ID: "fixed", Status: TicketStatusClosed, ProcessingStatus: ProcessingCompleted}
	_ = ticket.BeforeCreate(nil)
	if ticket.ID != "fixed" || ticket.Status != TicketStatusClosed || ticket.ProcessingStatus != ProcessingCompleted {
		t.Fatalf("explicit values overwritten: %+v", ticket)
	}
}
