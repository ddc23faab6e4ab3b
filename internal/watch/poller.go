// Package watch polls the store for tickets still moving through the
// pipeline and reports transitions. A fixed interval with no backoff mirrors
// the dashboard's own liveness polling.
package watch

import (
	"context"
	"log"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
)

const DefaultInterval = 2 * time.Second

type Poller struct {
	tickets  service.TicketServicer
	interval time.Duration

	// last observed processing status per ticket id.
	seen map[string]model.ProcessingStatus

	// OnTransition is called for every observed status change. Defaults to
	// logging.
	OnTransition func(t *model.Ticket, prev model.ProcessingStatus)
}

func NewPoller(tickets service.TicketServicer, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		tickets:  tickets,
		interval: interval,
		seen:     make(map[string]model.ProcessingStatus),
	}
}

// Poll fetches all non-terminal tickets once and reports transitions since
// the previous call. It returns the number of tickets still in flight.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	filter := map[string]interface{}{
		"processing_status IN ?": []model.ProcessingStatus{model.ProcessingWaiting, model.ProcessingActive},
	}
	items, _, err := p.tickets.List(ctx, filter, 0, 0)
	if err != nil {
		return 0, err
	}

	current := make(map[string]model.ProcessingStatus, len(items))
	for i := range items {
		t := &items[i]
		current[t.ID] = t.ProcessingStatus
		if prev, ok := p.seen[t.ID]; ok && prev != t.ProcessingStatus {
			p.transition(t, prev)
		}
	}
	// Tickets that left the in-flight set reached a terminal state.
	for id, prev := range p.seen {
		if _, ok := current[id]; ok {
			continue
		}
		if t, err := p.tickets.GetByID(ctx, id); err == nil && t.ProcessingStatus != prev {
			p.transition(t, prev)
		}
	}
	p.seen = current
	return len(items), nil
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				log.Printf("watch: poll: %v", err)
			}
		}
	}
}

func (p *Poller) transition(t *model.Ticket, prev model.ProcessingStatus) {
	if p.OnTransition != nil {
		p.OnTransition(t, prev)
		return
	}
	log.Printf("watch: ticket %s: %s -> %s", t.ID, prev, t.ProcessingStatus)
}
