package persistence

import (
	"context"
	"errors"

	"github.com/moneta/backend/internal/domain/liability"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLiabilityRepository implements liability.Repository using GORM
type GormLiabilityRepository struct {
	db *gorm.DB
}

// NewGormLiabilityRepository creates a new GormLiabilityRepository
func NewGormLiabilityRepository(db *gorm.DB) *GormLiabilityRepository {
	return &GormLiabilityRepository{db: db}
}

// FindByID finds a liability by ID
func (r *GormLiabilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*liability.Liability, error) {
	var l liability.Liability
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindByIDForUser finds a liability by ID owned by the user
func (r *GormLiabilityRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*liability.Liability, error) {
	var l liability.Liability
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindAllForUser finds all liabilities owned by the user
func (r *GormLiabilityRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]liability.Liability, error) {
	var liabilities []liability.Liability
	query := r.db.WithContext(ctx).Model(&liability.Liability{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)
	query = applyPagination(query, filter, LiabilitySortFields, "name ASC")

	if err := query.Find(&liabilities).Error; err != nil {
		return nil, err
	}
	return liabilities, nil
}

// FindActiveForUser finds liabilities eligible for schedule generation
func (r *GormLiabilityRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]liability.Liability, error) {
	var liabilities []liability.Liability
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, liability.StatusActive).
		Order("name ASC").
		Find(&liabilities).Error; err != nil {
		return nil, err
	}
	return liabilities, nil
}

// Save creates or updates a liability
func (r *GormLiabilityRepository) Save(ctx context.Context, l *liability.Liability) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// Delete deletes a liability
func (r *GormLiabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&liability.Liability{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForUser counts liabilities owned by the user
func (r *GormLiabilityRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&liability.Liability{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLiabilityRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormLiabilityRepository implements Repository
var _ liability.Repository = (*GormLiabilityRepository)(nil)
