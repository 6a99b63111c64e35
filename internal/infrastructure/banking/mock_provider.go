package banking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneta/backend/internal/domain/banking"
)

// MockProvider is an in-memory banking.Provider for local development.
// Customers and connections live in process memory; accounts and
// transactions are deterministic demo data so linked ledgers look the
// same on every run. It also verifies callbacks, accepting any secret,
// so the webhook route can be exercised with curl.
type MockProvider struct {
	mu          sync.Mutex
	seq         int
	customers   map[string]string          // provider customer ID -> identifier
	identifiers map[string]bool            // registered identifiers, for duplicate detection
	connections map[string]*mockConnection // provider connection ID -> state
	now         func() time.Time
}

type mockConnection struct {
	customerID   string
	consentUntil time.Time
	lastSuccess  time.Time
}

// NewMockProvider creates an empty in-memory provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		customers:   make(map[string]string),
		identifiers: make(map[string]bool),
		connections: make(map[string]*mockConnection),
		now:         time.Now,
	}
}

var _ banking.Provider = (*MockProvider)(nil)

func (p *MockProvider) CreateCustomer(ctx context.Context, identifier string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.identifiers[identifier] {
		return "", banking.ErrDuplicateCustomer
	}
	p.seq++
	customerID := fmt.Sprintf("mock-cust-%d", p.seq)
	p.customers[customerID] = identifier
	p.identifiers[identifier] = true
	return customerID, nil
}

func (p *MockProvider) RemoveCustomer(ctx context.Context, customerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identifier, ok := p.customers[customerID]
	if !ok {
		return banking.ErrCustomerNotFound
	}
	delete(p.customers, customerID)
	delete(p.identifiers, identifier)
	for id, conn := range p.connections {
		if conn.customerID == customerID {
			delete(p.connections, id)
		}
	}
	return nil
}

// CreateConnectSession skips the hosted consent page: the connection is
// created immediately and its ID is embedded in the returned URL, so a
// developer can fire the success callback by hand.
func (p *MockProvider) CreateConnectSession(ctx context.Context, customerID, returnTo string) (*banking.ConnectSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.customers[customerID]; !ok {
		return nil, banking.ErrCustomerNotFound
	}
	p.seq++
	connectionID := fmt.Sprintf("mock-conn-%d", p.seq)
	now := p.now()
	p.connections[connectionID] = &mockConnection{
		customerID:   customerID,
		consentUntil: now.Add(90 * 24 * time.Hour),
		lastSuccess:  now,
	}
	return &banking.ConnectSession{
		URL:       fmt.Sprintf("https://connect.mock.local/sessions/%s?return_to=%s", connectionID, returnTo),
		ExpiresAt: now.Add(time.Hour),
	}, nil
}

func (p *MockProvider) FetchConnection(ctx context.Context, connectionID string) (*banking.RemoteConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.connections[connectionID]
	if !ok {
		return nil, banking.ErrConnectionNotFound
	}
	return &banking.RemoteConnection{
		ID:           connectionID,
		ProviderCode: "mock_bank",
		ProviderName: "Mock Bank",
		Status:       "active",
		ConsentUntil: conn.consentUntil,
		LastSuccess:  conn.lastSuccess,
	}, nil
}

func (p *MockProvider) RefreshConnection(ctx context.Context, connectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.connections[connectionID]
	if !ok {
		return banking.ErrConnectionNotFound
	}
	conn.lastSuccess = p.now()
	return nil
}

func (p *MockProvider) RemoveConnection(ctx context.Context, connectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.connections[connectionID]; !ok {
		return banking.ErrConnectionNotFound
	}
	delete(p.connections, connectionID)
	return nil
}

func (p *MockProvider) ListAccounts(ctx context.Context, connectionID string) ([]banking.RemoteAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.connections[connectionID]; !ok {
		return nil, banking.ErrConnectionNotFound
	}
	return []banking.RemoteAccount{
		{
			ID:       connectionID + "-checking",
			Name:     "Mock Checking",
			Nature:   "account",
			Currency: "EUR",
			Balance:  decimal.NewFromFloat(1245.50),
		},
		{
			ID:       connectionID + "-savings",
			Name:     "Mock Savings",
			Nature:   "savings",
			Currency: "EUR",
			Balance:  decimal.NewFromInt(8000),
		},
	}, nil
}

func (p *MockProvider) ListTransactions(ctx context.Context, connectionID, accountID, fromID string) ([]banking.RemoteTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.connections[connectionID]; !ok {
		return nil, banking.ErrConnectionNotFound
	}
	// Single page of data: a continuation cursor means everything was
	// already delivered.
	if fromID != "" {
		return nil, nil
	}
	if accountID != connectionID+"-checking" {
		return nil, nil
	}
	day := p.now().Truncate(24 * time.Hour)
	return []banking.RemoteTransaction{
		{
			ID:          accountID + "-txn-1",
			AccountID:   accountID,
			Amount:      decimal.NewFromFloat(-42.10),
			Currency:    "EUR",
			MadeOn:      day.AddDate(0, 0, -2),
			Description: "Grocery store",
			Status:      "posted",
		},
		{
			ID:          accountID + "-txn-2",
			AccountID:   accountID,
			Amount:      decimal.NewFromFloat(-9.99),
			Currency:    "EUR",
			MadeOn:      day.AddDate(0, 0, -1),
			Description: "Streaming subscription",
			Status:      "posted",
		},
		{
			ID:          accountID + "-txn-3",
			AccountID:   accountID,
			Amount:      decimal.NewFromInt(2500),
			Currency:    "EUR",
			MadeOn:      day,
			Description: "Salary",
			Status:      "posted",
		},
	}, nil
}

// VerifyCallbackSecret accepts every secret. The fake exists for local
// development only and is never wired in production configurations.
func (p *MockProvider) VerifyCallbackSecret(secret string) error {
	return nil
}
