package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/google/uuid"
)

// MemoryTicketStore is an in-process TicketServicer used by tests and local
// development without Postgres. It applies the same conditional-transition
// semantics as the GORM-backed service.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]model.Ticket
}

func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]model.Ticket)}
}

func (m *MemoryTicketStore) Create(ctx context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.TicketStatusOpen
	}
	if t.ProcessingStatus == "" {
		t.ProcessingStatus = model.ProcessingWaiting
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tickets[t.ID] = *t
	return nil
}

func (m *MemoryTicketStore) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	return &t, nil
}

// List supports the filter keys the handlers and poller actually use.
func (m *MemoryTicketStore) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []model.Ticket
	for _, t := range m.tickets {
		if !matches(&t, filter) {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := int64(len(items))
	if offset > 0 {
		if offset >= len(items) {
			items = nil
		} else {
			items = items[offset:]
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, total, nil
}

func matches(t *model.Ticket, filter map[string]interface{}) bool {
	for k, v := range filter {
		switch k {
		case "email = ?":
			if t.Email != v.(string) {
				return false
			}
		case "status = ?":
			if string(t.Status) != v.(string) {
				return false
			}
		case "processing_status = ?":
			if string(t.ProcessingStatus) != v.(string) {
				return false
			}
		case "user_id = ?":
			if t.UserID != v.(string) {
				return false
			}
		case "processing_status IN ?":
			found := false
			for _, s := range v.([]model.ProcessingStatus) {
				if t.ProcessingStatus == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (m *MemoryTicketStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	if userID != "" && t.UserID != userID {
		return nil, errs.ErrNotOwner
	}
	applyChanges(&t, changes)
	t.UpdatedAt = time.Now()
	m.tickets[id] = t
	return &t, nil
}

func applyChanges(t *model.Ticket, changes map[string]interface{}) {
	for k, v := range changes {
		switch k {
		case "status":
			switch s := v.(type) {
			case string:
				t.Status = model.TicketStatus(s)
			case model.TicketStatus:
				t.Status = s
			}
		case "subject":
			t.Subject = v.(string)
		case "body":
			t.Body = v.(string)
		case "processing_status":
			t.ProcessingStatus = v.(model.ProcessingStatus)
		case "failure_reason":
			t.FailureReason = v.(string)
		case "description":
			s := v.(string)
			t.Description = &s
		case "priority":
			p := v.(model.Priority)
			t.Priority = &p
		case "raw_json":
			s := v.(string)
			t.RawJSON = &s
		}
	}
}

func (m *MemoryTicketStore) Delete(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return errs.ErrTicketNotFound
	}
	if userID != "" && t.UserID != userID {
		return errs.ErrNotOwner
	}
	delete(m.tickets, id)
	return nil
}

func (m *MemoryTicketStore) transition(id string, from []model.ProcessingStatus, to model.ProcessingStatus, changes map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return errs.ErrTicketNotFound
	}
	matched := false
	for _, s := range from {
		if t.ProcessingStatus == s {
			matched = true
			break
		}
	}
	if !matched {
		return errs.ErrInvalidTransition
	}
	applyChanges(&t, changes)
	t.ProcessingStatus = to
	t.UpdatedAt = time.Now()
	m.tickets[id] = t
	return nil
}

func (m *MemoryTicketStore) MarkProcessing(ctx context.Context, id string) error {
	return m.transition(id, []model.ProcessingStatus{model.ProcessingWaiting}, model.ProcessingActive, nil)
}

func (m *MemoryTicketStore) Complete(ctx context.Context, id, description string, priority model.Priority, rawJSON string) error {
	if !model.ValidPriority(priority) {
		return errs.ErrSchemaValidation
	}
	return m.transition(id, []model.ProcessingStatus{model.ProcessingActive}, model.ProcessingCompleted, map[string]interface{}{
		"description": description,
		"priority":    priority,
		"raw_json":    rawJSON,
	})
}

func (m *MemoryTicketStore) CompleteRaw(ctx context.Context, id, rawJSON string) error {
	return m.transition(id, []model.ProcessingStatus{model.ProcessingActive}, model.ProcessingCompleted, map[string]interface{}{
		"raw_json": rawJSON,
	})
}

func (m *MemoryTicketStore) MarkFailed(ctx context.Context, id, reason string) error {
	return m.transition(id, []model.ProcessingStatus{model.ProcessingWaiting, model.ProcessingActive}, model.ProcessingFailed, map[string]interface{}{
		"failure_reason": reason,
	})
}
