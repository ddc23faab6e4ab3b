package service

import (
	"context"
	"errors"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"gorm.io/gorm"
)

// TicketServicer is the store seam used by the HTTP handlers and the
// pipeline components (and replaced with a fake in their tests).
type TicketServicer interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error)
	Update(ctx context.Context, id, userID string, changes map[string]interface{}) (*model.Ticket, error)
	Delete(ctx context.Context, id, userID string) error

	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id, description string, priority model.Priority, rawJSON string) error
	CompleteRaw(ctx context.Context, id, rawJSON string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

func (s *TicketService) Create(ctx context.Context, t *model.Ticket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *TicketService) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies user-facing changes. A non-empty userID enforces ownership;
// pipeline callers pass "" and are exempt.
func (s *TicketService) Update(ctx context.Context, id, userID string, changes map[string]interface{}) (*model.Ticket, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && t.UserID != userID {
		return nil, errs.ErrNotOwner
	}
	if err := s.db.WithContext(ctx).Model(t).Updates(changes).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TicketService) Delete(ctx context.Context, id, userID string) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if userID != "" && t.UserID != userID {
		return errs.ErrNotOwner
	}
	return s.db.WithContext(ctx).Delete(t).Error
}

// transition performs a conditional processing-status update guarded on the
// expected previous state. RowsAffected == 0 means either the ticket is
// missing or a concurrent writer already moved it; the follow-up read tells
// the two apart so races fail closed instead of overwriting.
func (s *TicketService) transition(ctx context.Context, id string, from, to model.ProcessingStatus, extra map[string]interface{}) error {
	changes := map[string]interface{}{"processing_status": to}
	for k, v := range extra {
		changes[k] = v
	}
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND processing_status = ?", id, from).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return errs.ErrInvalidTransition
	}
	return nil
}

// MarkProcessing advances waiting to processing after a successful relay
// dispatch.
func (s *TicketService) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.ProcessingWaiting, model.ProcessingActive, nil)
}

// Complete advances processing to completed and folds in the extraction
// result plus the serialized callback payload. Description and priority are
// written exactly once, on this transition.
func (s *TicketService) Complete(ctx context.Context, id, description string, priority model.Priority, rawJSON string) error {
	if !model.ValidPriority(priority) {
		return errs.ErrSchemaValidation
	}
	return s.transition(ctx, id, model.ProcessingActive, model.ProcessingCompleted, map[string]interface{}{
		"description": description,
		"priority":    priority,
		"raw_json":    rawJSON,
	})
}

// CompleteRaw advances processing to completed without extraction output.
// Used when no extractor is configured.
func (s *TicketService) CompleteRaw(ctx context.Context, id, rawJSON string) error {
	return s.transition(ctx, id, model.ProcessingActive, model.ProcessingCompleted, map[string]interface{}{
		"raw_json": rawJSON,
	})
}

// MarkFailed moves a non-terminal ticket to the failed state so a stalled
// pipeline is observable instead of indistinguishable from in-flight work.
func (s *TicketService) MarkFailed(ctx context.Context, id, reason string) error {
	changes := map[string]interface{}{
		"processing_status": model.ProcessingFailed,
		"failure_reason":    reason,
	}
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND processing_status IN ?", id,
			[]model.ProcessingStatus{model.ProcessingWaiting, model.ProcessingActive}).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return errs.ErrInvalidTransition
	}
	return nil
}
