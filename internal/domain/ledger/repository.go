package ledger

import (
	"context"
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Account, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Account, error)

	// FindByConnection finds all accounts linked to a banking connection
	FindByConnection(ctx context.Context, connectionID uuid.UUID) ([]Account, error)

	// FindByProviderAccountID finds the local account for a remote account
	FindByProviderAccountID(ctx context.Context, connectionID uuid.UUID, providerAccountID string) (*Account, error)

	Save(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Category, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// FindByPostedRange finds transactions for an account within [from, to]
	FindByPostedRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]Transaction, error)

	// ExistsByProviderTransactionID reports whether a provider transaction
	// was already imported for the connection.
	ExistsByProviderTransactionID(ctx context.Context, connectionID uuid.UUID, providerTxnID string) (bool, error)

	Save(ctx context.Context, txn *Transaction) error
	SaveBatch(ctx context.Context, txns []*Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByConnection removes bank-imported transactions belonging to a
	// connection. Manually entered transactions are never touched.
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error)

	// DeleteStaleForAccount removes bank-imported transactions of an account
	// whose provider IDs are no longer present remotely.
	DeleteStaleForAccount(ctx context.Context, accountID uuid.UUID, keepProviderIDs []string) (int64, error)

	CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
}
