package schedule

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduledTransactionType distinguishes the direction of the planned entry
type ScheduledTransactionType string

const (
	ScheduledTypeIncome   ScheduledTransactionType = "income"
	ScheduledTypeExpense  ScheduledTransactionType = "expense"
	ScheduledTypeTransfer ScheduledTransactionType = "transfer"
)

// ScheduledTransactionStatus represents the lifecycle of a schedule
type ScheduledTransactionStatus string

const (
	ScheduleStatusActive   ScheduledTransactionStatus = "active"
	ScheduleStatusPaused   ScheduledTransactionStatus = "paused"
	ScheduleStatusFinished ScheduledTransactionStatus = "finished"
)

// ScheduledTransaction is a planned future ledger entry, one-time or
// recurring. It is the aggregate root of the recurrence engine.
type ScheduledTransaction struct {
	shared.UserAggregateRoot
	AccountID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index"`
	// CounterAccountID is the receiving account for transfers.
	CounterAccountID *uuid.UUID               `gorm:"type:uuid"`
	Type             ScheduledTransactionType `gorm:"type:varchar(10);not null;default:'expense'"`
	Payee            string                   `gorm:"type:varchar(200)"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Currency         string                   `gorm:"type:varchar(3);not null"`
	Rule             RecurrenceRule           `gorm:"embedded;embeddedPrefix:rule_"`
	NextDueDate      time.Time                `gorm:"type:date;not null;index"`
	// AutoPost makes the due-date sweeper post the entry without user action.
	AutoPost bool                       `gorm:"not null;default:false"`
	Status   ScheduledTransactionStatus `gorm:"type:varchar(10);not null;default:'active'"`
	Notes    string                     `gorm:"type:text"`
	// LiabilityID links schedules generated from a liability. At most one
	// schedule exists per liability.
	LiabilityID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ScheduledTransaction) TableName() string {
	return "scheduled_transactions"
}

// NewScheduledTransaction creates a new scheduled transaction
func NewScheduledTransaction(userID, accountID uuid.UUID, txnType ScheduledTransactionType, amount decimal.Decimal, currency string, rule RecurrenceRule, firstDue time.Time) (*ScheduledTransaction, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := validateScheduledType(txnType); err != nil {
		return nil, err
	}
	if amount.IsZero() || amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	if firstDue.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "First due date is required")
	}

	return &ScheduledTransaction{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		AccountID:         accountID,
		Type:              txnType,
		Amount:            amount,
		Currency:          currency,
		Rule:              rule.AnchoredTo(firstDue),
		NextDueDate:       truncateToDay(firstDue),
		Status:            ScheduleStatusActive,
	}, nil
}

// NewFromLiability creates the monthly schedule backing a liability payment
func NewFromLiability(userID, accountID, liabilityID uuid.UUID, payee string, installment decimal.Decimal, currency string, paymentDay int, firstDue time.Time) (*ScheduledTransaction, error) {
	st, err := NewScheduledTransaction(userID, accountID, ScheduledTypeExpense, installment, currency, MonthlyRule(paymentDay), firstDue)
	if err != nil {
		return nil, err
	}
	st.Payee = payee
	st.AutoPost = true
	st.LiabilityID = &liabilityID
	return st, nil
}

// IsDue reports whether the schedule is payable on or before the given day
func (s *ScheduledTransaction) IsDue(on time.Time) bool {
	return s.Status == ScheduleStatusActive && !s.NextDueDate.After(truncateToDay(on))
}

// SignedAmount returns the amount with ledger sign applied: expenses and
// transfers debit the source account.
func (s *ScheduledTransaction) SignedAmount() decimal.Decimal {
	if s.Type == ScheduledTypeIncome {
		return s.Amount
	}
	return s.Amount.Neg()
}

// Skip advances the due date one period without posting anything.
// A one-time schedule is finished by skipping it.
func (s *ScheduledTransaction) Skip() error {
	if s.Status != ScheduleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active schedules can be skipped")
	}
	s.advance()
	return nil
}

// Complete marks the current occurrence as posted and advances the due
// date. The caller is responsible for writing the ledger entry in the same
// database transaction.
func (s *ScheduledTransaction) Complete() error {
	if s.Status != ScheduleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active schedules can be completed")
	}
	s.advance()
	return nil
}

func (s *ScheduledTransaction) advance() {
	next := NextDueDate(s.Rule, s.NextDueDate)
	if next.IsZero() {
		s.Status = ScheduleStatusFinished
	} else {
		s.NextDueDate = next
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Pause suspends the schedule, preserving its next due date
func (s *ScheduledTransaction) Pause() error {
	if s.Status != ScheduleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active schedules can be paused")
	}
	s.Status = ScheduleStatusPaused
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Resume reactivates a paused schedule
func (s *ScheduledTransaction) Resume() error {
	if s.Status != ScheduleStatusPaused {
		return shared.NewDomainError("INVALID_STATE", "Only paused schedules can be resumed")
	}
	s.Status = ScheduleStatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Update changes the mutable fields of the schedule
func (s *ScheduledTransaction) Update(amount decimal.Decimal, payee string, rule RecurrenceRule, nextDue time.Time, autoPost bool) error {
	if s.Status == ScheduleStatusFinished {
		return shared.NewDomainError("INVALID_STATE", "Finished schedules cannot be updated")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if amount.IsZero() || amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if nextDue.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Next due date is required")
	}
	s.Amount = amount
	s.Payee = payee
	s.Rule = rule.AnchoredTo(nextDue)
	s.NextDueDate = truncateToDay(nextDue)
	s.AutoPost = autoPost
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

func validateScheduledType(t ScheduledTransactionType) error {
	switch t {
	case ScheduledTypeIncome, ScheduledTypeExpense, ScheduledTypeTransfer:
		return nil
	default:
		return shared.NewDomainError("INVALID_TYPE", "Scheduled transaction type must be 'income', 'expense' or 'transfer'")
	}
}
