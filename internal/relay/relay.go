// Package relay converts a newly created ticket into an outbound email and
// hands it to the delivery provider, marking the ticket in-flight on success
// and failed on delivery errors.
package relay

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/inbound"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/kafka"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/postmark"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
)

// EmailSender is the provider seam (postmark.Client in production).
type EmailSender interface {
	SendEmail(ctx context.Context, msg postmark.Message) error
}

type Relay struct {
	sender   EmailSender
	tickets  service.TicketServicer
	producer kafka.TicketEventProducer

	// fromEmail, when set, replaces the ticket reporter as the From address
	// (providers reject senders outside the verified domain).
	fromEmail string
	// toEmail is the provider's inbound-parse address.
	toEmail string
}

func New(sender EmailSender, tickets service.TicketServicer, producer kafka.TicketEventProducer, fromEmail, toEmail string) *Relay {
	return &Relay{
		sender:    sender,
		tickets:   tickets,
		producer:  producer,
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

// Dispatch sends the email representation of the ticket and advances the
// ticket to processing. A delivery failure marks the ticket failed so it is
// observable, and is returned to the caller for logging; the HTTP trigger
// endpoint still acknowledges with success either way.
func (r *Relay) Dispatch(ctx context.Context, t *model.Ticket) error {
	envelope, err := inbound.EncodeEnvelope(inbound.Envelope{
		TicketID: t.ID,
		Email:    t.Email,
		Subject:  t.Subject,
		Body:     t.Body,
	})
	if err != nil {
		return err
	}

	from := t.Email
	if r.fromEmail != "" {
		from = r.fromEmail
	}
	msg := postmark.Message{
		From:     from,
		To:       r.toEmail,
		Subject:  t.Subject,
		TextBody: envelope,
		HtmlBody: fmt.Sprintf("<html><body><strong>%s</strong><br/>%s</body></html>",
			html.EscapeString(t.Subject), html.EscapeString(t.Body)),
		MessageStream: "inbound",
	}

	if err := r.sender.SendEmail(ctx, msg); err != nil {
		log.Printf("relay: send for ticket %s: %v", t.ID, err)
		if ferr := r.tickets.MarkFailed(ctx, t.ID, "email delivery failed: "+err.Error()); ferr != nil && !errors.Is(ferr, errs.ErrInvalidTransition) {
			log.Printf("relay: mark failed for ticket %s: %v", t.ID, ferr)
		}
		r.produce(ctx, kafka.EventTicketFailed, t.ID)
		return fmt.Errorf("relay: send: %w", err)
	}

	if err := r.tickets.MarkProcessing(ctx, t.ID); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			// A duplicate trigger raced us; the first one won.
			log.Printf("relay: ticket %s already past waiting", t.ID)
			return nil
		}
		return fmt.Errorf("relay: mark processing: %w", err)
	}
	r.produce(ctx, kafka.EventTicketProcessing, t.ID)
	return nil
}

func (r *Relay) produce(ctx context.Context, event, id string) {
	if r.producer == nil {
		return
	}
	if t, err := r.tickets.GetByID(ctx, id); err == nil {
		r.producer.ProduceTicketEvent(ctx, event, t)
	}
}
