package banking

import (
	"context"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConnectionRepository defines the interface for connection persistence
type ConnectionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Connection, error)
	FindByProviderConnectionID(ctx context.Context, providerConnectionID string) (*Connection, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Connection, error)

	// FindActive finds all syncable connections across users. Used by the
	// periodic refresh job.
	FindActive(ctx context.Context) ([]Connection, error)

	Save(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerRepository defines the interface for provider-customer persistence
type CustomerRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error)
	FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReplayGuard deduplicates provider webhook deliveries. Marking the same
// delivery twice within the TTL returns false the second time.
type ReplayGuard interface {
	MarkProcessed(ctx context.Context, deliveryID string) (bool, error)
}
