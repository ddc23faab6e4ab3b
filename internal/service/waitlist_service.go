package service

import (
	"context"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"gorm.io/gorm"
)

// WaitlistServicer captures leads from the public signup form.
type WaitlistServicer interface {
	Create(ctx context.Context, e *model.WaitlistEntry) error
}

type WaitlistService struct {
	db *gorm.DB
}

func NewWaitlistService(db *gorm.DB) *WaitlistService {
	return &WaitlistService{db: db}
}

func (s *WaitlistService) Create(ctx context.Context, e *model.WaitlistEntry) error {
	return s.db.WithContext(ctx).Create(e).Error
}
