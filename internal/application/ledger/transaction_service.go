package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/shared"
)

// ReceiptStorage abstracts the object store holding receipt attachments
type ReceiptStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// TransactionService handles the transaction register: listing, manual
// entry and receipt attachments.
type TransactionService struct {
	txnRepo      ledger.TransactionRepository
	accountRepo  ledger.AccountRepository
	categoryRepo ledger.CategoryRepository
	storage      ReceiptStorage
	keyPrefix    string
	logger       *zap.Logger
}

// NewTransactionService creates a new transaction service. storage may be
// nil, in which case receipt operations return ATTACHMENTS_DISABLED.
func NewTransactionService(
	txnRepo ledger.TransactionRepository,
	accountRepo ledger.AccountRepository,
	categoryRepo ledger.CategoryRepository,
	storage ReceiptStorage,
	keyPrefix string,
	logger *zap.Logger,
) *TransactionService {
	if keyPrefix == "" {
		keyPrefix = "receipts"
	}
	return &TransactionService{
		txnRepo:      txnRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		storage:      storage,
		keyPrefix:    keyPrefix,
		logger:       logger,
	}
}

// List returns the user's transactions, paginated and filtered
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.Transaction], error) {
	txns, err := s.txnRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to list transactions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list transactions")
	}
	total, err := s.txnRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to count transactions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list transactions")
	}
	result := shared.NewPaginated(txns, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Get returns a single transaction owned by the user
func (s *TransactionService) Get(ctx context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	txn, err := s.txnRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}
	return txn, nil
}

// Create records a manually entered transaction and applies it to the
// account balance
func (s *TransactionService) Create(ctx context.Context, input CreateTransactionInput) (*ledger.Transaction, error) {
	account, err := s.accountRepo.FindByIDForUser(ctx, input.UserID, input.AccountID)
	if err != nil {
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	currency := input.Currency
	if currency == "" {
		currency = account.Currency
	}

	txn, err := ledger.NewTransaction(input.UserID, account.ID, input.Amount, currency, input.PostedOn, input.Payee)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if s.categoryRepo != nil {
			if _, err := s.categoryRepo.FindByIDForUser(ctx, input.UserID, *input.CategoryID); err != nil {
				return nil, shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
			}
		}
		txn.Categorize(*input.CategoryID)
	}
	if input.Notes != "" {
		txn.SetNotes(input.Notes)
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		s.logger.Error("Failed to save transaction", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create transaction")
	}

	account.Adjust(txn.Amount)
	if err := s.accountRepo.Save(ctx, account); err != nil {
		s.logger.Error("Failed to update account balance after posting",
			zap.String("account_id", account.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Transaction created",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("amount", txn.Amount.String()))
	return txn, nil
}

// Delete removes a manually entered transaction and reverses its effect on
// the account balance. Bank-imported transactions cannot be deleted.
func (s *TransactionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	txn, err := s.txnRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}
	if txn.IsBankImported() {
		return shared.NewDomainError("TRANSACTION_IMMUTABLE", "Bank-imported transactions cannot be deleted")
	}

	if err := s.txnRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete transaction", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete transaction")
	}

	if account, err := s.accountRepo.FindByID(ctx, txn.AccountID); err == nil {
		account.Adjust(txn.Amount.Neg())
		if err := s.accountRepo.Save(ctx, account); err != nil {
			s.logger.Error("Failed to reverse account balance after delete", zap.Error(err))
		}
	}

	if txn.AttachmentKey != nil && s.storage != nil {
		if err := s.storage.DeleteObject(ctx, *txn.AttachmentKey); err != nil {
			s.logger.Warn("Failed to delete receipt object",
				zap.String("key", *txn.AttachmentKey),
				zap.Error(err))
		}
	}

	s.logger.Info("Transaction deleted", zap.String("transaction_id", id.String()))
	return nil
}

// RequestReceiptUpload returns a presigned URL the client PUTs the receipt
// file to. The attachment becomes visible after ConfirmReceipt.
func (s *TransactionService) RequestReceiptUpload(ctx context.Context, userID, txnID uuid.UUID, contentType string) (*ReceiptUploadResult, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("ATTACHMENTS_DISABLED", "Receipt attachments are not configured")
	}

	txn, err := s.txnRepo.FindByIDForUser(ctx, userID, txnID)
	if err != nil {
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}

	key := fmt.Sprintf("%s/%s/%s", s.keyPrefix, userID, txn.ID)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, 0)
	if err != nil {
		s.logger.Error("Failed to presign receipt upload", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prepare receipt upload")
	}

	return &ReceiptUploadResult{UploadURL: url, Key: key, ExpiresAt: expiresAt}, nil
}

// ConfirmReceipt links an uploaded receipt object to the transaction
func (s *TransactionService) ConfirmReceipt(ctx context.Context, userID, txnID uuid.UUID, key string) error {
	if s.storage == nil {
		return shared.NewDomainError("ATTACHMENTS_DISABLED", "Receipt attachments are not configured")
	}

	txn, err := s.txnRepo.FindByIDForUser(ctx, userID, txnID)
	if err != nil {
		return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}

	expectedPrefix := fmt.Sprintf("%s/%s/", s.keyPrefix, userID)
	if len(key) <= len(expectedPrefix) || key[:len(expectedPrefix)] != expectedPrefix {
		return shared.NewDomainError("INVALID_ATTACHMENT", "Attachment key does not belong to this user")
	}

	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		s.logger.Error("Failed to check receipt object", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to confirm receipt upload")
	}
	if !exists {
		return shared.NewDomainError("ATTACHMENT_MISSING", "Receipt was not uploaded")
	}

	if err := txn.AttachReceipt(key); err != nil {
		return err
	}
	if err := s.txnRepo.Save(ctx, txn); err != nil {
		s.logger.Error("Failed to save transaction with receipt", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to confirm receipt upload")
	}

	s.logger.Info("Receipt attached",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("key", key))
	return nil
}

// ReceiptDownloadURL returns a presigned download URL for the receipt
func (s *TransactionService) ReceiptDownloadURL(ctx context.Context, userID, txnID uuid.UUID) (*ReceiptDownloadResult, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("ATTACHMENTS_DISABLED", "Receipt attachments are not configured")
	}

	txn, err := s.txnRepo.FindByIDForUser(ctx, userID, txnID)
	if err != nil {
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}
	if txn.AttachmentKey == nil {
		return nil, shared.NewDomainError("ATTACHMENT_MISSING", "Transaction has no receipt")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, *txn.AttachmentKey, 0)
	if err != nil {
		s.logger.Error("Failed to presign receipt download", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prepare receipt download")
	}

	return &ReceiptDownloadResult{DownloadURL: url, ExpiresAt: expiresAt}, nil
}
