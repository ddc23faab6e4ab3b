package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusClosed     TicketStatus = "closed"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriority reports whether p is one of the three allowed tiers.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ProcessingStatus is the pipeline-internal state of a ticket, distinct from
// the user-facing Status. It only ever advances waiting → processing →
// completed, or terminates at failed.
type ProcessingStatus string

const (
	ProcessingWaiting   ProcessingStatus = "waiting"
	ProcessingActive    ProcessingStatus = "processing"
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingFailed    ProcessingStatus = "failed"
)

// Terminal reports whether s admits no further transitions.
func (s ProcessingStatus) Terminal() bool {
	return s == ProcessingCompleted || s == ProcessingFailed
}

type Ticket struct {
	ID               string           `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string           `gorm:"type:varchar(255);index;not null" json:"email"`
	Subject          string           `gorm:"type:varchar(255);not null" json:"subject"`
	Body             string           `gorm:"type:text" json:"body"`
	Status           TicketStatus     `gorm:"type:varchar(32);index;not null" json:"status"`
	Priority         *Priority        `gorm:"type:varchar(32)" json:"priority"`
	ProcessingStatus ProcessingStatus `gorm:"type:varchar(32);index;not null" json:"processing_status"`
	RawJSON          *string          `gorm:"column:raw_json;type:text" json:"rawJson"`
	Description      *string          `gorm:"type:text" json:"description"`
	UserID           string           `gorm:"type:varchar(64);index" json:"userId"`
	FailureReason    string           `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the opaque id and the initial states.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.ProcessingStatus == "" {
		t.ProcessingStatus = ProcessingWaiting
	}
	return nil
}

// WaitlistEntry is a captured lead from the public signup form. Create-only,
// not part of the ticket pipeline.
type WaitlistEntry struct {
	ID                    string    `gorm:"type:uuid;primaryKey" json:"id"`
	FullName              string    `gorm:"type:varchar(255);not null" json:"full_name"`
	WorkEmail             string    `gorm:"type:varchar(255);not null" json:"work_email"`
	CompanyName           string    `gorm:"type:varchar(255);not null" json:"company_name"`
	MonthlySupportTickets string    `gorm:"type:varchar(64);not null" json:"monthly_support_tickets"`
	CreatedAt             time.Time `json:"created_at"`
}

func (w *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
