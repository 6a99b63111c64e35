package liability

import (
	"context"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for liability persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Liability, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Liability, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Liability, error)

	// FindActiveForUser finds liabilities eligible for schedule generation
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]Liability, error)

	Save(ctx context.Context, l *Liability) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
}
