package ledger

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of financial account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeLoan       AccountType = "loan"
)

// AccountStatus represents the lifecycle state of an account
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusArchived AccountStatus = "archived"
)

// Account represents a financial account in the ledger.
// Accounts are created manually or materialized by the banking sync; a
// provider-linked account carries the identifiers of its remote counterpart.
type Account struct {
	shared.UserAggregateRoot
	Name     string          `gorm:"type:varchar(200);not null"`
	Type     AccountType     `gorm:"type:varchar(20);not null;default:'checking'"`
	Currency string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	Balance  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status   AccountStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	// Provider linkage; nil for manually managed accounts.
	ConnectionID      *uuid.UUID `gorm:"type:uuid;index"`
	ProviderAccountID *string    `gorm:"type:varchar(100);index"`
	LastSyncedAt      *time.Time
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new manually managed account
func NewAccount(userID uuid.UUID, name string, accountType AccountType, currency string) (*Account, error) {
	if err := validateAccountName(name); err != nil {
		return nil, err
	}
	if err := validateAccountType(accountType); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}

	return &Account{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              name,
		Type:              accountType,
		Currency:          currency,
		Balance:           decimal.Zero,
		Status:            AccountStatusActive,
	}, nil
}

// NewLinkedAccount creates an account materialized from a banking provider
func NewLinkedAccount(userID, connectionID uuid.UUID, providerAccountID, name string, accountType AccountType, currency string, balance decimal.Decimal) (*Account, error) {
	account, err := NewAccount(userID, name, accountType, currency)
	if err != nil {
		return nil, err
	}
	if providerAccountID == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER_ACCOUNT", "Provider account ID cannot be empty")
	}
	account.ConnectionID = &connectionID
	account.ProviderAccountID = &providerAccountID
	account.Balance = balance
	now := time.Now()
	account.LastSyncedAt = &now
	return account, nil
}

// IsLinked returns true when the account is backed by a banking connection
func (a *Account) IsLinked() bool {
	return a.ConnectionID != nil && a.ProviderAccountID != nil
}

// ApplySyncedBalance updates the balance from a provider snapshot
func (a *Account) ApplySyncedBalance(balance decimal.Decimal) {
	a.Balance = balance
	now := time.Now()
	a.LastSyncedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
}

// Unlink detaches the account from its banking connection, keeping the
// account and its history as a manual account.
func (a *Account) Unlink() {
	a.ConnectionID = nil
	a.ProviderAccountID = nil
	a.LastSyncedAt = nil
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// Rename changes the account display name
func (a *Account) Rename(name string) error {
	if err := validateAccountName(name); err != nil {
		return err
	}
	a.Name = name
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Adjust applies a signed delta to the account balance
func (a *Account) Adjust(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// Archive hides the account from active listings
func (a *Account) Archive() error {
	if a.Status == AccountStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Account is already archived")
	}
	a.Status = AccountStatusArchived
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

func validateAccountName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 200 characters")
	}
	return nil
}

func validateAccountType(t AccountType) error {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard,
		AccountTypeInvestment, AccountTypeCash, AccountTypeLoan:
		return nil
	default:
		return shared.NewDomainError("INVALID_TYPE", "Invalid account type")
	}
}

func validateCurrency(currency string) error {
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
		}
	}
	return nil
}
