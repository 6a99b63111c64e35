package liability

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind represents the type of liability
type Kind string

const (
	KindLoan     Kind = "loan"
	KindCredit   Kind = "credit"
	KindMortgage Kind = "mortgage"
	KindOther    Kind = "other"
)

// Status represents the lifecycle state of a liability
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Liability represents a loan or other debt with a fixed installment.
// Active liabilities with a payment day can back a generated scheduled
// transaction that posts the installment every month.
type Liability struct {
	shared.UserAggregateRoot
	Name      string          `gorm:"type:varchar(200);not null"`
	Kind      Kind            `gorm:"type:varchar(20);not null;default:'loan'"`
	Principal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// InterestRate is the yearly nominal rate in percent.
	InterestRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Installment  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	// PaymentDay is the day of month the installment is due (1..28 so every
	// month has the day).
	PaymentDay int       `gorm:"not null;default:1"`
	StartsOn   time.Time `gorm:"type:date;not null"`
	EndsOn     *time.Time
	// AccountID is the account installments are paid from, when known.
	AccountID *uuid.UUID `gorm:"type:uuid;index"`
	Status    Status     `gorm:"type:varchar(10);not null;default:'active'"`
	Notes     string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Liability) TableName() string {
	return "liabilities"
}

// NewLiability creates a new liability
func NewLiability(userID uuid.UUID, name string, kind Kind, principal, installment decimal.Decimal, currency string, paymentDay int, startsOn time.Time) (*Liability, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Liability name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Liability name cannot exceed 200 characters")
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if principal.IsNegative() || principal.IsZero() {
		return nil, shared.NewDomainError("INVALID_PRINCIPAL", "Principal must be positive")
	}
	if installment.IsNegative() || installment.IsZero() {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT", "Installment must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	if paymentDay < 1 || paymentDay > 28 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 28")
	}
	if startsOn.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Start date is required")
	}

	return &Liability{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              name,
		Kind:              kind,
		Principal:         principal,
		Installment:       installment,
		Currency:          currency,
		PaymentDay:        paymentDay,
		StartsOn:          startsOn,
		Status:            StatusActive,
	}, nil
}

// SetInterestRate sets the yearly nominal interest rate in percent
func (l *Liability) SetInterestRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Interest rate cannot be negative")
	}
	l.InterestRate = rate
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// RemainingBalance estimates the outstanding principal after the payments
// elapsed between the start date and now. Interest accrual is ignored; this
// is a planning figure, not an amortization schedule.
func (l *Liability) RemainingBalance(now time.Time) decimal.Decimal {
	if l.Status == StatusClosed {
		return decimal.Zero
	}
	months := monthsBetween(l.StartsOn, now)
	paid := l.Installment.Mul(decimal.NewFromInt(int64(months)))
	remaining := l.Principal.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsActive reports whether installments are still owed
func (l *Liability) IsActive() bool {
	return l.Status == StatusActive
}

// Close marks the liability as paid off
func (l *Liability) Close() error {
	if l.Status == StatusClosed {
		return shared.NewDomainError("ALREADY_CLOSED", "Liability is already closed")
	}
	l.Status = StatusClosed
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Update changes the mutable fields of the liability
func (l *Liability) Update(name string, installment decimal.Decimal, paymentDay int, notes string) error {
	if l.Status == StatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Closed liabilities cannot be updated")
	}
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Liability name cannot be empty")
	}
	if installment.IsNegative() || installment.IsZero() {
		return shared.NewDomainError("INVALID_INSTALLMENT", "Installment must be positive")
	}
	if paymentDay < 1 || paymentDay > 28 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 28")
	}
	l.Name = name
	l.Installment = installment
	l.PaymentDay = paymentDay
	l.Notes = notes
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

func validateKind(k Kind) error {
	switch k {
	case KindLoan, KindCredit, KindMortgage, KindOther:
		return nil
	default:
		return shared.NewDomainError("INVALID_KIND", "Invalid liability kind")
	}
}

// monthsBetween counts whole calendar months from a to b, never negative
func monthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
