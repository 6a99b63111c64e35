package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput contains the input for recording a transaction
type CreateTransactionInput struct {
	UserID     uuid.UUID
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	Amount     decimal.Decimal
	// Currency defaults to the account currency when empty
	Currency string
	PostedOn time.Time
	Payee    string
	Notes    string
}

// ReceiptUploadResult contains the presigned upload target for a receipt
type ReceiptUploadResult struct {
	UploadURL string
	Key       string
	ExpiresAt time.Time
}

// ReceiptDownloadResult contains the presigned download URL for a receipt
type ReceiptDownloadResult struct {
	DownloadURL string
	ExpiresAt   time.Time
}
