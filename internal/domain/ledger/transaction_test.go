package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var posted = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func TestNewTransaction(t *testing.T) {
	txn, err := NewTransaction(uuid.New(), uuid.New(), decimal.NewFromInt(-42), "EUR", posted, "Grocer")
	require.NoError(t, err)
	assert.Equal(t, TransactionOriginManual, txn.Origin)
	assert.False(t, txn.IsBankImported())
}

func TestNewTransaction_Validation(t *testing.T) {
	_, err := NewTransaction(uuid.New(), uuid.New(), decimal.Zero, "EUR", posted, "")
	assert.Error(t, err, "zero amount")

	_, err = NewTransaction(uuid.New(), uuid.New(), decimal.NewFromInt(1), "EURO", posted, "")
	assert.Error(t, err, "bad currency")

	_, err = NewTransaction(uuid.New(), uuid.New(), decimal.NewFromInt(1), "EUR", time.Time{}, "")
	assert.Error(t, err, "missing date")
}

func TestNewBankTransaction(t *testing.T) {
	connID := uuid.New()
	txn, err := NewBankTransaction(uuid.New(), uuid.New(), connID, "se-txn-1", decimal.NewFromInt(-9), "EUR", posted, "Cafe")
	require.NoError(t, err)

	assert.True(t, txn.IsBankImported())
	assert.Equal(t, connID, *txn.ConnectionID)
	assert.Equal(t, "se-txn-1", *txn.ProviderTransactionID)

	_, err = NewBankTransaction(uuid.New(), uuid.New(), connID, "", decimal.NewFromInt(-9), "EUR", posted, "")
	assert.Error(t, err, "provider transaction ID is required")
}

func TestNewScheduledPosting(t *testing.T) {
	scheduleID := uuid.New()
	txn, err := NewScheduledPosting(uuid.New(), uuid.New(), scheduleID, decimal.NewFromInt(-100), "EUR", posted, "Landlord")
	require.NoError(t, err)

	assert.Equal(t, TransactionOriginScheduled, txn.Origin)
	assert.Equal(t, scheduleID, *txn.ScheduledTransactionID)
}

func TestAccountLinking(t *testing.T) {
	userID, connID := uuid.New(), uuid.New()

	account, err := NewLinkedAccount(userID, connID, "se-acc-1", "Main checking", AccountTypeChecking, "EUR", decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.True(t, account.IsLinked())
	require.NotNil(t, account.LastSyncedAt)

	account.ApplySyncedBalance(decimal.NewFromInt(1100))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1100)))

	account.Unlink()
	assert.False(t, account.IsLinked())
	assert.Nil(t, account.LastSyncedAt)
}

func TestNewAccount_Validation(t *testing.T) {
	_, err := NewAccount(uuid.New(), "", AccountTypeChecking, "EUR")
	assert.Error(t, err, "empty name")

	_, err = NewAccount(uuid.New(), "x", "piggybank", "EUR")
	assert.Error(t, err, "unknown type")

	_, err = NewAccount(uuid.New(), "x", AccountTypeChecking, "eur")
	assert.Error(t, err, "lowercase currency")
}
