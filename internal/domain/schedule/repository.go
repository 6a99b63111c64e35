package schedule

import (
	"context"
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ScheduledTransactionRepository defines the interface for schedule persistence
type ScheduledTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduledTransaction, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ScheduledTransaction, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ScheduledTransaction, error)

	// FindActiveForUser finds schedules eligible for calendar expansion
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]ScheduledTransaction, error)

	// FindDue finds active auto-post schedules due on or before the date,
	// across all users. Used by the background sweeper.
	FindDue(ctx context.Context, on time.Time, limit int) ([]ScheduledTransaction, error)

	// FindByLiability finds the schedule generated from a liability, if any
	FindByLiability(ctx context.Context, liabilityID uuid.UUID) (*ScheduledTransaction, error)

	Save(ctx context.Context, st *ScheduledTransaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
}
