package persistence

import (
	"context"
	"errors"

	"github.com/moneta/backend/internal/domain/banking"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConnectionRepository implements banking.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// FindByID finds a connection by ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.Connection, error) {
	var conn banking.Connection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// FindByIDForUser finds a connection by ID owned by the user
func (r *GormConnectionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*banking.Connection, error) {
	var conn banking.Connection
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// FindByProviderConnectionID finds a connection by its provider-side identifier
func (r *GormConnectionRepository) FindByProviderConnectionID(ctx context.Context, providerConnectionID string) (*banking.Connection, error) {
	var conn banking.Connection
	if err := r.db.WithContext(ctx).
		Where("provider_connection_id = ?", providerConnectionID).
		First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// FindAllForUser finds all connections owned by the user
func (r *GormConnectionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]banking.Connection, error) {
	var conns []banking.Connection
	query := r.db.WithContext(ctx).Model(&banking.Connection{}).Where("user_id = ?", userID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	query = applyPagination(query, filter, ConnectionSortFields, "created_at DESC")

	if err := query.Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// FindActive finds all syncable connections across users
func (r *GormConnectionRepository) FindActive(ctx context.Context) ([]banking.Connection, error) {
	var conns []banking.Connection
	if err := r.db.WithContext(ctx).
		Where("status = ?", banking.ConnectionStatusActive).
		Order("last_synced_at ASC NULLS FIRST").
		Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// Save creates or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *banking.Connection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

// Delete deletes a connection
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&banking.Connection{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormConnectionRepository implements ConnectionRepository
var _ banking.ConnectionRepository = (*GormConnectionRepository)(nil)

// GormBankingCustomerRepository implements banking.CustomerRepository using GORM
type GormBankingCustomerRepository struct {
	db *gorm.DB
}

// NewGormBankingCustomerRepository creates a new GormBankingCustomerRepository
func NewGormBankingCustomerRepository(db *gorm.DB) *GormBankingCustomerRepository {
	return &GormBankingCustomerRepository{db: db}
}

// FindByUserID finds the provider customer registered for a user
func (r *GormBankingCustomerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*banking.Customer, error) {
	var customer banking.Customer
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByProviderCustomerID finds a customer by its provider-side identifier
func (r *GormBankingCustomerRepository) FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (*banking.Customer, error) {
	var customer banking.Customer
	if err := r.db.WithContext(ctx).
		Where("provider_customer_id = ?", providerCustomerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// Save creates or updates a customer
func (r *GormBankingCustomerRepository) Save(ctx context.Context, customer *banking.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// Delete deletes a customer
func (r *GormBankingCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&banking.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBankingCustomerRepository implements CustomerRepository
var _ banking.CustomerRepository = (*GormBankingCustomerRepository)(nil)
