package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/moneta/backend/internal/domain/schedule"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormScheduledTransactionRepository implements
// schedule.ScheduledTransactionRepository using GORM
type GormScheduledTransactionRepository struct {
	db *gorm.DB
}

// NewGormScheduledTransactionRepository creates a new GormScheduledTransactionRepository
func NewGormScheduledTransactionRepository(db *gorm.DB) *GormScheduledTransactionRepository {
	return &GormScheduledTransactionRepository{db: db}
}

// FindByID finds a scheduled transaction by ID
func (r *GormScheduledTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	var st schedule.ScheduledTransaction
	if err := r.db.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// FindByIDForUser finds a scheduled transaction by ID owned by the user
func (r *GormScheduledTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	var st schedule.ScheduledTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// FindAllForUser finds scheduled transactions owned by the user
func (r *GormScheduledTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]schedule.ScheduledTransaction, error) {
	var schedules []schedule.ScheduledTransaction
	query := r.db.WithContext(ctx).Model(&schedule.ScheduledTransaction{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)
	query = applyPagination(query, filter, ScheduledTransactionSortFields, "next_due_date ASC")

	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindActiveForUser finds active schedules eligible for calendar expansion
func (r *GormScheduledTransactionRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]schedule.ScheduledTransaction, error) {
	var schedules []schedule.ScheduledTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, schedule.ScheduleStatusActive).
		Order("next_due_date ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindDue finds active auto-post schedules due on or before the date,
// across all users. Used by the background sweeper.
func (r *GormScheduledTransactionRepository) FindDue(ctx context.Context, on time.Time, limit int) ([]schedule.ScheduledTransaction, error) {
	var schedules []schedule.ScheduledTransaction
	query := r.db.WithContext(ctx).
		Where("status = ? AND auto_post = ? AND next_due_date <= ?", schedule.ScheduleStatusActive, true, on).
		Order("next_due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindByLiability finds the schedule generated from a liability, if any
func (r *GormScheduledTransactionRepository) FindByLiability(ctx context.Context, liabilityID uuid.UUID) (*schedule.ScheduledTransaction, error) {
	var st schedule.ScheduledTransaction
	if err := r.db.WithContext(ctx).
		Where("liability_id = ?", liabilityID).
		First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// Save creates or updates a scheduled transaction
func (r *GormScheduledTransactionRepository) Save(ctx context.Context, st *schedule.ScheduledTransaction) error {
	return r.db.WithContext(ctx).Save(st).Error
}

// Delete deletes a scheduled transaction
func (r *GormScheduledTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&schedule.ScheduledTransaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForUser counts scheduled transactions owned by the user
func (r *GormScheduledTransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&schedule.ScheduledTransaction{}).Where("user_id = ?", userID)
	query = r.applySearch(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormScheduledTransactionRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("payee ILIKE ? OR notes ILIKE ?", searchPattern, searchPattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "account_id":
			query = query.Where("account_id = ?", value)
		case "auto_post":
			query = query.Where("auto_post = ?", value)
		}
	}
	return query
}

// Ensure GormScheduledTransactionRepository implements ScheduledTransactionRepository
var _ schedule.ScheduledTransactionRepository = (*GormScheduledTransactionRepository)(nil)
