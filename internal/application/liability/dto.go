package liability

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta/backend/internal/domain/liability"
)

// CreateLiabilityInput contains the input for creating a liability
type CreateLiabilityInput struct {
	UserID       uuid.UUID
	Name         string
	Kind         liability.Kind
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	Installment  decimal.Decimal
	Currency     string
	PaymentDay   int
	StartsOn     time.Time
	AccountID    *uuid.UUID
	Notes        string
}

// UpdateLiabilityInput contains the mutable fields of a liability
type UpdateLiabilityInput struct {
	UserID      uuid.UUID
	ID          uuid.UUID
	Name        string
	Installment decimal.Decimal
	PaymentDay  int
	Notes       string
}

// Detail pairs a liability with its derived figures
type Detail struct {
	Liability *liability.Liability
	// RemainingBalance is the estimated outstanding principal as of now
	RemainingBalance decimal.Decimal
}
