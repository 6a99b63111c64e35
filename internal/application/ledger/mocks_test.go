package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/shared"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if txn, ok := args.Get(0).(*ledger.Transaction); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if txn, ok := args.Get(0).(*ledger.Transaction); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if txns, ok := args.Get(0).([]ledger.Transaction); ok {
		return txns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) FindByPostedRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.Transaction, error) {
	args := m.Called(ctx, accountID, from, to)
	if txns, ok := args.Get(0).([]ledger.Transaction); ok {
		return txns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) ExistsByProviderTransactionID(ctx context.Context, connectionID uuid.UUID, providerTxnID string) (bool, error) {
	args := m.Called(ctx, connectionID, providerTxnID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, txn *ledger.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveBatch(ctx context.Context, txns []*ledger.Transaction) error {
	args := m.Called(ctx, txns)
	return args.Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, connectionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) DeleteStaleForAccount(ctx context.Context, accountID uuid.UUID, keepProviderIDs []string) (int64, error) {
	args := m.Called(ctx, accountID, keepProviderIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
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

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Category, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ledger.Category, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *ledger.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReceiptStorage struct {
	mock.Mock
}

func (m *MockReceiptStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockReceiptStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockReceiptStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockReceiptStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}
