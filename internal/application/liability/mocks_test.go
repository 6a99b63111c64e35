package liability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/liability"
	"github.com/moneta/backend/internal/domain/schedule"
	"github.com/moneta/backend/internal/domain/shared"
)

type MockLiabilityRepository struct {
	mock.Mock
}

func (m *MockLiabilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*liability.Liability, error) {
	args := m.Called(ctx, id)
	if l, ok := args.Get(0).(*liability.Liability); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiabilityRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*liability.Liability, error) {
	args := m.Called(ctx, userID, id)
	if l, ok := args.Get(0).(*liability.Liability); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiabilityRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]liability.Liability, error) {
	args := m.Called(ctx, userID, filter)
	if ls, ok := args.Get(0).([]liability.Liability); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiabilityRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]liability.Liability, error) {
	args := m.Called(ctx, userID)
	if ls, ok := args.Get(0).([]liability.Liability); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiabilityRepository) Save(ctx context.Context, l *liability.Liability) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLiabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLiabilityRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, id)
	if account, ok := args.Get(0).(*ledger.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, userID, id)
	if account, ok := args.Get(0).(*ledger.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ledger.Account, error) {
	args := m.Called(ctx, userID, filter)
	if accounts, ok := args.Get(0).([]ledger.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID) ([]ledger.Account, error) {
	args := m.Called(ctx, connectionID)
	if accounts, ok := args.Get(0).([]ledger.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByProviderAccountID(ctx context.Context, connectionID uuid.UUID, providerAccountID string) (*ledger.Account, error) {
	args := m.Called(ctx, connectionID, providerAccountID)
	if account, ok := args.Get(0).(*ledger.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, id)
	if st, ok := args.Get(0).(*schedule.ScheduledTransaction); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, userID, id)
	if st, ok := args.Get(0).(*schedule.ScheduledTransaction); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, userID, filter)
	if sts, ok := args.Get(0).([]schedule.ScheduledTransaction); ok {
		return sts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, userID)
	if sts, ok := args.Get(0).([]schedule.ScheduledTransaction); ok {
		return sts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) FindDue(ctx context.Context, on time.Time, limit int) ([]schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, on, limit)
	if sts, ok := args.Get(0).([]schedule.ScheduledTransaction); ok {
		return sts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) FindByLiability(ctx context.Context, liabilityID uuid.UUID) (*schedule.ScheduledTransaction, error) {
	args := m.Called(ctx, liabilityID)
	if st, ok := args.Get(0).(*schedule.ScheduledTransaction); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, st *schedule.ScheduledTransaction) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}
