package banking

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Provider errors. Adapters map provider-specific failures onto these so the
// service layer can react uniformly.
var (
	ErrProviderUnavailable  = errors.New("banking: provider unavailable")
	ErrCustomerNotFound     = errors.New("banking: customer not found at provider")
	ErrConnectionNotFound   = errors.New("banking: connection not found at provider")
	ErrDuplicateCustomer    = errors.New("banking: customer already exists at provider")
	ErrInvalidSignature     = errors.New("banking: invalid callback signature")
	ErrConsentExpired       = errors.New("banking: consent expired, reconnect required")
	ErrRateLimited          = errors.New("banking: provider rate limit exceeded")
	ErrProviderRequestError = errors.New("banking: provider request failed")
)

// ConnectSession is the provider-hosted page a user is redirected to in
// order to authorize access to their bank.
type ConnectSession struct {
	URL       string
	ExpiresAt time.Time
}

// RemoteConnection is the provider's view of a bank link
type RemoteConnection struct {
	ID           string
	ProviderCode string
	ProviderName string
	Status       string
	ConsentUntil time.Time
	LastSuccess  time.Time
}

// RemoteAccount is the provider's view of a bank account
type RemoteAccount struct {
	ID       string
	Name     string
	Nature   string
	Currency string
	Balance  decimal.Decimal
}

// RemoteTransaction is the provider's view of a posted bank transaction
type RemoteTransaction struct {
	ID          string
	AccountID   string
	Amount      decimal.Decimal
	Currency    string
	MadeOn      time.Time
	Description string
	Status      string
}

// Provider abstracts an open-banking aggregation API. The production
// implementation wraps SaltEdge; tests use MockProvider.
type Provider interface {
	// CreateCustomer registers an end user at the provider and returns the
	// provider-side customer ID.
	CreateCustomer(ctx context.Context, identifier string) (string, error)

	// RemoveCustomer deletes the customer and everything below it.
	RemoveCustomer(ctx context.Context, customerID string) error

	// CreateConnectSession starts the OAuth-style link flow for a customer.
	CreateConnectSession(ctx context.Context, customerID, returnTo string) (*ConnectSession, error)

	// FetchConnection retrieves the current state of a connection.
	FetchConnection(ctx context.Context, connectionID string) (*RemoteConnection, error)

	// RefreshConnection asks the provider to pull fresh data for a
	// connection. The refresh completes asynchronously; the provider
	// notifies completion through a webhook.
	RefreshConnection(ctx context.Context, connectionID string) error

	// RemoveConnection revokes the bank link at the provider.
	RemoveConnection(ctx context.Context, connectionID string) error

	// ListAccounts lists the accounts of a connection.
	ListAccounts(ctx context.Context, connectionID string) ([]RemoteAccount, error)

	// ListTransactions lists posted transactions of an account, starting
	// after fromID ("" for the beginning). Implementations follow the
	// provider's pagination to exhaustion.
	ListTransactions(ctx context.Context, connectionID, accountID, fromID string) ([]RemoteTransaction, error)
}
