package ledger

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionOrigin records how a transaction entered the ledger
type TransactionOrigin string

const (
	// TransactionOriginManual marks transactions entered by the user
	TransactionOriginManual TransactionOrigin = "manual"
	// TransactionOriginScheduled marks transactions posted from a scheduled transaction
	TransactionOriginScheduled TransactionOrigin = "scheduled"
	// TransactionOriginBank marks transactions imported through a banking connection
	TransactionOriginBank TransactionOrigin = "bank"
)

// Transaction represents a posted ledger entry. Amounts are signed:
// negative for outflows, positive for inflows.
type Transaction struct {
	shared.UserAggregateRoot
	AccountID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	CategoryID *uuid.UUID        `gorm:"type:uuid;index"`
	Amount     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Currency   string            `gorm:"type:varchar(3);not null"`
	PostedOn   time.Time         `gorm:"type:date;not null;index"`
	Payee      string            `gorm:"type:varchar(200)"`
	Notes      string            `gorm:"type:text"`
	Origin     TransactionOrigin `gorm:"type:varchar(10);not null;default:'manual'"`
	// Provider identifiers for bank-imported transactions. The pair
	// (connection_id, provider_transaction_id) is unique, which makes the
	// sync upsert idempotent.
	ConnectionID          *uuid.UUID `gorm:"type:uuid;index:idx_txn_provider,priority:1"`
	ProviderTransactionID *string    `gorm:"type:varchar(100);uniqueIndex:idx_txn_provider,priority:2"`
	// ScheduledTransactionID links entries posted by the recurrence engine
	// back to their schedule.
	ScheduledTransactionID *uuid.UUID `gorm:"type:uuid;index"`
	// AttachmentKey is the object-storage key of an uploaded receipt.
	AttachmentKey *string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a manually entered transaction
func NewTransaction(userID, accountID uuid.UUID, amount decimal.Decimal, currency string, postedOn time.Time, payee string) (*Transaction, error) {
	if err := validateTransaction(amount, currency, postedOn); err != nil {
		return nil, err
	}
	return &Transaction{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		AccountID:         accountID,
		Amount:            amount,
		Currency:          currency,
		PostedOn:          postedOn,
		Payee:             payee,
		Origin:            TransactionOriginManual,
	}, nil
}

// NewScheduledPosting creates a transaction posted by the recurrence engine
func NewScheduledPosting(userID, accountID, scheduleID uuid.UUID, amount decimal.Decimal, currency string, postedOn time.Time, payee string) (*Transaction, error) {
	txn, err := NewTransaction(userID, accountID, amount, currency, postedOn, payee)
	if err != nil {
		return nil, err
	}
	txn.Origin = TransactionOriginScheduled
	txn.ScheduledTransactionID = &scheduleID
	return txn, nil
}

// NewBankTransaction creates a transaction imported from a banking provider
func NewBankTransaction(userID, accountID, connectionID uuid.UUID, providerTxnID string, amount decimal.Decimal, currency string, postedOn time.Time, payee string) (*Transaction, error) {
	if providerTxnID == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER_TXN", "Provider transaction ID cannot be empty")
	}
	txn, err := NewTransaction(userID, accountID, amount, currency, postedOn, payee)
	if err != nil {
		return nil, err
	}
	txn.Origin = TransactionOriginBank
	txn.ConnectionID = &connectionID
	txn.ProviderTransactionID = &providerTxnID
	return txn, nil
}

// IsBankImported returns true for provider-sourced transactions
func (t *Transaction) IsBankImported() bool {
	return t.Origin == TransactionOriginBank && t.ProviderTransactionID != nil
}

// Categorize assigns a category
func (t *Transaction) Categorize(categoryID uuid.UUID) {
	t.CategoryID = &categoryID
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// SetNotes sets the free-form notes
func (t *Transaction) SetNotes(notes string) {
	t.Notes = notes
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// AttachReceipt records the object-storage key of an uploaded receipt
func (t *Transaction) AttachReceipt(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_ATTACHMENT", "Attachment key cannot be empty")
	}
	t.AttachmentKey = &key
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

func validateTransaction(amount decimal.Decimal, currency string, postedOn time.Time) error {
	if amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be zero")
	}
	if err := validateCurrency(currency); err != nil {
		return err
	}
	if postedOn.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Posted date is required")
	}
	return nil
}
