package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta/backend/internal/domain/schedule"
)

// CreateScheduleInput contains the input for creating a scheduled transaction
type CreateScheduleInput struct {
	UserID           uuid.UUID
	AccountID        uuid.UUID
	CategoryID       *uuid.UUID
	CounterAccountID *uuid.UUID
	Type             schedule.ScheduledTransactionType
	Payee            string
	Amount           decimal.Decimal
	Currency         string
	Rule             schedule.RecurrenceRule
	FirstDue         time.Time
	AutoPost         bool
	Notes            string
}

// UpdateScheduleInput contains the mutable fields of a schedule
type UpdateScheduleInput struct {
	UserID   uuid.UUID
	ID       uuid.UUID
	Amount   decimal.Decimal
	Payee    string
	Rule     schedule.RecurrenceRule
	NextDue  time.Time
	AutoPost bool
}

// CompleteInput contains the input for posting the current occurrence
type CompleteInput struct {
	UserID uuid.UUID
	ID     uuid.UUID
	// PostedOn defaults to the schedule's due date when zero
	PostedOn time.Time
}

// CalendarEvent is one expanded occurrence of a schedule within a window
type CalendarEvent struct {
	Date       time.Time                         `json:"date"`
	ScheduleID uuid.UUID                         `json:"schedule_id"`
	AccountID  uuid.UUID                         `json:"account_id"`
	Type       schedule.ScheduledTransactionType `json:"type"`
	Payee      string                            `json:"payee"`
	// Amount is signed: negative for expenses and transfers out
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	AutoPost bool            `json:"auto_post"`
}

// GenerateResult reports the outcome of schedule generation from liabilities
type GenerateResult struct {
	Created int
	Skipped int
}
