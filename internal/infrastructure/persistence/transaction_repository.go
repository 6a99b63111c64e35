package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindByIDForUser finds a transaction by ID owned by the user
func (r *GormTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindAllForUser finds transactions owned by the user matching the filter
func (r *GormTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ledger.Transaction, error) {
	var txns []ledger.Transaction
	query := r.db.WithContext(ctx).Model(&ledger.Transaction{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)
	query = applyPagination(query, filter, TransactionSortFields, "posted_on DESC, created_at DESC")

	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// FindByPostedRange finds transactions for an account posted within [from, to]
func (r *GormTransactionRepository) FindByPostedRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.Transaction, error) {
	var txns []ledger.Transaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND posted_on >= ? AND posted_on <= ?", accountID, from, to).
		Order("posted_on ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ExistsByProviderTransactionID reports whether a provider transaction was
// already imported for the connection
func (r *GormTransactionRepository) ExistsByProviderTransactionID(ctx context.Context, connectionID uuid.UUID, providerTxnID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("connection_id = ? AND provider_transaction_id = ?", connectionID, providerTxnID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, txn *ledger.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// SaveBatch creates or updates multiple transactions
func (r *GormTransactionRepository) SaveBatch(ctx context.Context, txns []*ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(txns).Error
}

// Delete deletes a transaction
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ledger.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByConnection removes bank-imported transactions belonging to a
// connection. Manually entered transactions are never touched.
func (r *GormTransactionRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("connection_id = ? AND origin = ?", connectionID, ledger.TransactionOriginBank).
		Delete(&ledger.Transaction{})
	return result.RowsAffected, result.Error
}

// DeleteStaleForAccount removes bank-imported transactions of an account
// whose provider IDs are no longer present remotely
func (r *GormTransactionRepository) DeleteStaleForAccount(ctx context.Context, accountID uuid.UUID, keepProviderIDs []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ? AND origin = ?", accountID, ledger.TransactionOriginBank)
	if len(keepProviderIDs) > 0 {
		query = query.Where("provider_transaction_id NOT IN ?", keepProviderIDs)
	}
	result := query.Delete(&ledger.Transaction{})
	return result.RowsAffected, result.Error
}

// CountForUser counts transactions owned by the user matching the filter
func (r *GormTransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ledger.Transaction{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransactionRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("payee ILIKE ? OR notes ILIKE ?", searchPattern, searchPattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "account_id":
			query = query.Where("account_id = ?", value)
		case "category_id":
			query = query.Where("category_id = ?", value)
		case "origin":
			query = query.Where("origin = ?", value)
		case "posted_from":
			query = query.Where("posted_on >= ?", value)
		case "posted_to":
			query = query.Where("posted_on <= ?", value)
		}
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
