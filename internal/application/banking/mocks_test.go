package banking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/moneta/backend/internal/domain/banking"
	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/shared"
)

type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.Connection, error) {
	args := m.Called(ctx, id)
	if conn, ok := args.Get(0).(*banking.Connection); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConnectionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*banking.Connection, error) {
	args := m.Called(ctx, userID, id)
	if conn, ok := args.Get(0).(*banking.Connection); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConnectionRepository) FindByProviderConnectionID(ctx context.Context, providerConnectionID string) (*banking.Connection, error) {
	args := m.Called(ctx, providerConnectionID)
	if conn, ok := args.Get(0).(*banking.Connection); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConnectionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]banking.Connection, error) {
	args := m.Called(ctx, userID, filter)
	if conns, ok := args.Get(0).([]banking.Connection); ok {
		return conns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConnectionRepository) FindActive(ctx context.Context) ([]banking.Connection, error) {
	args := m.Called(ctx)
	if conns, ok := args.Get(0).([]banking.Connection); ok {
		return conns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *banking.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*banking.Customer, error) {
	args := m.Called(ctx, userID)
	if customer, ok := args.Get(0).(*banking.Customer); ok {
		return customer, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (*banking.Customer, error) {
	args := m.Called(ctx, providerCustomerID)
	if customer, ok := args.Get(0).(*banking.Customer); ok {
		return customer, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *banking.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReplayGuard struct {
	mock.Mock
}

func (m *MockReplayGuard) MarkProcessed(ctx context.Context, deliveryID string) (bool, error) {
	args := m.Called(ctx, deliveryID)
	return args.Bool(0), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyCallbackSecret(secret string) error {
	args := m.Called(secret)
	return args.Error(0)
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

type MockProvider struct {
	mock.Mock
}

var _ banking.Provider = (*MockProvider)(nil)

func (m *MockProvider) CreateCustomer(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) RemoveCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockProvider) CreateConnectSession(ctx context.Context, customerID, returnTo string) (*banking.ConnectSession, error) {
	args := m.Called(ctx, customerID, returnTo)
	if session, ok := args.Get(0).(*banking.ConnectSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) FetchConnection(ctx context.Context, connectionID string) (*banking.RemoteConnection, error) {
	args := m.Called(ctx, connectionID)
	if conn, ok := args.Get(0).(*banking.RemoteConnection); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) RefreshConnection(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockProvider) RemoveConnection(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockProvider) ListAccounts(ctx context.Context, connectionID string) ([]banking.RemoteAccount, error) {
	args := m.Called(ctx, connectionID)
	if accounts, ok := args.Get(0).([]banking.RemoteAccount); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) ListTransactions(ctx context.Context, connectionID, accountID, fromID string) ([]banking.RemoteTransaction, error) {
	args := m.Called(ctx, connectionID, accountID, fromID)
	if transactions, ok := args.Get(0).([]banking.RemoteTransaction); ok {
		return transactions, args.Error(1)
	}
	return nil, args.Error(1)
}
