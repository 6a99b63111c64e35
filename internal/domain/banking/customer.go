package banking

import (
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is the local record of a provider-side customer. Each user is
// registered at most once at the provider.
type Customer struct {
	shared.BaseAggregateRoot
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ProviderCustomerID string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	// Identifier is the value the customer was registered under at the
	// provider (opaque, never the user's email).
	Identifier string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "banking_customers"
}

// NewCustomer creates a customer record
func NewCustomer(userID uuid.UUID, providerCustomerID, identifier string) (*Customer, error) {
	if providerCustomerID == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Provider customer ID cannot be empty")
	}
	return &Customer{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		UserID:             userID,
		ProviderCustomerID: providerCustomerID,
		Identifier:         identifier,
	}, nil
}
