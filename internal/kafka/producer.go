package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/segmentio/kafka-go"
)

// Pipeline event names carried in the "event" field of each message.
const (
	EventTicketCreated    = "ticket.created"
	EventTicketProcessing = "ticket.processing"
	EventTicketCompleted  = "ticket.completed"
	EventTicketFailed     = "ticket.failed"
)

// TicketEventProducer publishes ticket pipeline events (mockable in tests).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket)
}

// Producer writes pipeline events to a Kafka topic (best-effort, never
// blocks or fails the request that triggered it).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates the producer. With no brokers or an empty topic all
// methods are no-ops.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceTicketEvent publishes one event for the given ticket. The payload
// carries the fields the dashboard and downstream consumers key on.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	msg := map[string]interface{}{
		"event":             event,
		"ticket_id":         t.ID,
		"email":             t.Email,
		"subject":           t.Subject,
		"status":            string(t.Status),
		"processing_status": string(t.ProcessingStatus),
	}
	if t.Priority != nil {
		msg["priority"] = string(*t.Priority)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal ticket event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ID), Value: body}); err != nil {
		log.Printf("kafka: write ticket event: %v", err)
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
