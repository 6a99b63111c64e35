package banking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/banking"
	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/shared"
)

// CallbackVerifier checks the shared secret carried by provider webhooks.
// The SaltEdge adapter implements it alongside the Provider interface.
type CallbackVerifier interface {
	VerifyCallbackSecret(secret string) error
}

// Service orchestrates the open-banking integration: provider customers,
// link sessions, webhook callbacks, data sync and revocation.
type Service struct {
	provider       banking.Provider
	verifier       CallbackVerifier
	customerRepo   banking.CustomerRepository
	connectionRepo banking.ConnectionRepository
	accountRepo    ledger.AccountRepository
	txnRepo        ledger.TransactionRepository
	replayGuard    banking.ReplayGuard
	logger         *zap.Logger
}

// NewService creates a new banking service
func NewService(
	provider banking.Provider,
	verifier CallbackVerifier,
	customerRepo banking.CustomerRepository,
	connectionRepo banking.ConnectionRepository,
	accountRepo ledger.AccountRepository,
	txnRepo ledger.TransactionRepository,
	replayGuard banking.ReplayGuard,
	logger *zap.Logger,
) *Service {
	return &Service{
		provider:       provider,
		verifier:       verifier,
		customerRepo:   customerRepo,
		connectionRepo: connectionRepo,
		accountRepo:    accountRepo,
		txnRepo:        txnRepo,
		replayGuard:    replayGuard,
		logger:         logger,
	}
}

// EnsureCustomer returns the provider customer for the user, registering one
// on first use. The registration identifier is opaque so the provider never
// learns the user's email.
func (s *Service) EnsureCustomer(ctx context.Context, userID uuid.UUID) (*banking.Customer, error) {
	if existing, err := s.customerRepo.FindByUserID(ctx, userID); err == nil && existing != nil {
		return existing, nil
	}

	identifier := uuid.NewString()
	providerCustomerID, err := s.provider.CreateCustomer(ctx, identifier)
	if err != nil {
		s.logger.Error("Failed to register provider customer", zap.Error(err))
		return nil, s.providerError(err)
	}

	customer, err := banking.NewCustomer(userID, providerCustomerID, identifier)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to save provider customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register banking customer")
	}

	s.logger.Info("Provider customer registered",
		zap.String("user_id", userID.String()),
		zap.String("provider_customer_id", providerCustomerID))
	return customer, nil
}

// InitiateLink starts the provider-hosted flow that connects a bank. The
// returned URL is where the user must be redirected.
func (s *Service) InitiateLink(ctx context.Context, userID uuid.UUID, returnTo string) (*LinkSession, error) {
	customer, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateConnectSession(ctx, customer.ProviderCustomerID, returnTo)
	if err != nil {
		s.logger.Error("Failed to create connect session", zap.Error(err))
		return nil, s.providerError(err)
	}
	return &LinkSession{URL: session.URL, ExpiresAt: session.ExpiresAt}, nil
}

// HandleCallback processes one provider webhook delivery. Deliveries are
// verified against the shared callback secret and deduplicated; a replayed
// delivery is acknowledged without effect.
func (s *Service) HandleCallback(ctx context.Context, secret string, payload CallbackPayload) error {
	if err := s.verifier.VerifyCallbackSecret(secret); err != nil {
		s.logger.Warn("Callback rejected: bad secret",
			zap.String("connection_id", payload.ConnectionID))
		return shared.NewDomainError("INVALID_SIGNATURE", "Callback verification failed")
	}
	if payload.ConnectionID == "" {
		return shared.NewDomainError("INVALID_CALLBACK", "Callback payload is missing the connection ID")
	}

	fresh, err := s.replayGuard.MarkProcessed(ctx, payload.DeliveryKey())
	if err != nil {
		s.logger.Error("Replay guard unavailable", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to process callback")
	}
	if !fresh {
		s.logger.Info("Duplicate callback delivery ignored",
			zap.String("delivery_key", payload.DeliveryKey()))
		return nil
	}

	switch payload.Type {
	case CallbackSuccess, CallbackNotify:
		return s.handleSuccess(ctx, payload)
	case CallbackFailure:
		return s.handleFailure(ctx, payload)
	case CallbackDestroy:
		return s.handleDestroy(ctx, payload)
	default:
		return shared.NewDomainError("INVALID_CALLBACK", "Unknown callback type")
	}
}

// handleSuccess upserts the connection the callback refers to and, once the
// link flow reaches its final stage, syncs its data.
func (s *Service) handleSuccess(ctx context.Context, payload CallbackPayload) error {
	conn, err := s.connectionRepo.FindByProviderConnectionID(ctx, payload.ConnectionID)
	if err != nil || conn == nil {
		customer, err := s.customerRepo.FindByProviderCustomerID(ctx, payload.CustomerID)
		if err != nil || customer == nil {
			s.logger.Warn("Callback for unknown customer",
				zap.String("provider_customer_id", payload.CustomerID))
			return shared.NewDomainError("UNKNOWN_CUSTOMER", "Callback customer is not registered")
		}
		conn, err = banking.NewConnection(customer.UserID, payload.ConnectionID, "", "")
		if err != nil {
			return err
		}
	}

	remote, err := s.provider.FetchConnection(ctx, payload.ConnectionID)
	if err != nil {
		s.logger.Error("Failed to fetch connection after callback",
			zap.String("provider_connection_id", payload.ConnectionID),
			zap.Error(err))
		conn.MarkFailed(err.Error())
		if saveErr := s.connectionRepo.Save(ctx, conn); saveErr != nil {
			s.logger.Error("Failed to save connection", zap.Error(saveErr))
		}
		return s.providerError(err)
	}

	conn.ProviderCode = remote.ProviderCode
	conn.ProviderName = remote.ProviderName
	conn.Activate(remote.ConsentUntil)
	if err := s.connectionRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to save connection", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to process callback")
	}

	s.logger.Info("Connection activated",
		zap.String("connection_id", conn.ID.String()),
		zap.String("provider", conn.ProviderName),
		zap.String("stage", payload.Stage))

	if payload.Stage == "" || payload.Stage == "finish" {
		if _, err := s.Sync(ctx, conn.ID); err != nil {
			// The connection is linked; sync retries on the next refresh.
			s.logger.Error("Initial sync failed",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) handleFailure(ctx context.Context, payload CallbackPayload) error {
	conn, err := s.connectionRepo.FindByProviderConnectionID(ctx, payload.ConnectionID)
	if err != nil || conn == nil {
		// A failed link attempt that never produced a local record.
		s.logger.Warn("Failure callback for unknown connection",
			zap.String("provider_connection_id", payload.ConnectionID),
			zap.String("error_class", payload.ErrorClass))
		return nil
	}

	conn.MarkFailed(payload.ErrorClass + ": " + payload.ErrorMessage)
	if err := s.connectionRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to save failed connection", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to process callback")
	}
	return nil
}

// handleDestroy deactivates a connection removed on the provider side,
// drops its imported transactions and converts its accounts to manual
// ones. Manual entries on those accounts are untouched.
func (s *Service) handleDestroy(ctx context.Context, payload CallbackPayload) error {
	conn, err := s.connectionRepo.FindByProviderConnectionID(ctx, payload.ConnectionID)
	if err != nil || conn == nil {
		return nil
	}

	conn.Deactivate()
	if err := s.connectionRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to save deactivated connection", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to process callback")
	}

	removed, err := s.txnRepo.DeleteByConnection(ctx, conn.ID)
	if err != nil {
		s.logger.Error("Failed to remove imported transactions",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err))
	}
	s.unlinkAccounts(ctx, conn.ID)

	s.logger.Info("Connection destroyed by provider",
		zap.String("connection_id", conn.ID.String()),
		zap.Int64("transactions_removed", removed))
	return nil
}

// Sync pulls accounts and transactions for one connection and reconciles
// them with the ledger. Safe to repeat: imports are keyed by the provider
// transaction ID.
func (s *Service) Sync(ctx context.Context, connectionID uuid.UUID) (*SyncResult, error) {
	conn, err := s.connectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, shared.NewDomainError("CONNECTION_NOT_FOUND", "Connection not found")
	}
	if !conn.IsActive() {
		return nil, shared.NewDomainError("CONNECTION_INACTIVE", "Connection is not active")
	}
	if conn.ConsentExpired(time.Now()) {
		conn.Deactivate()
		if err := s.connectionRepo.Save(ctx, conn); err != nil {
			s.logger.Error("Failed to save connection", zap.Error(err))
		}
		return nil, shared.NewDomainError("CONSENT_EXPIRED", "Bank consent expired, reconnect required")
	}

	remoteAccounts, err := s.provider.ListAccounts(ctx, conn.ProviderConnectionID)
	if err != nil {
		return nil, s.syncFailure(ctx, conn, err)
	}

	result := &SyncResult{ConnectionID: conn.ID}
	seen := make(map[string]bool, len(remoteAccounts))
	for _, remote := range remoteAccounts {
		seen[remote.ID] = true
		local, err := s.upsertAccount(ctx, conn, remote, result)
		if err != nil {
			return nil, err
		}
		if err := s.importTransactions(ctx, conn, local, remote.ID, result); err != nil {
			return nil, err
		}
	}

	// Accounts the provider no longer reports become manual accounts and
	// their imported transactions are dropped; only manual entries survive.
	locals, err := s.accountRepo.FindByConnection(ctx, conn.ID)
	if err == nil {
		for i := range locals {
			local := &locals[i]
			if local.ProviderAccountID == nil || seen[*local.ProviderAccountID] {
				continue
			}
			local.Unlink()
			if err := s.accountRepo.Save(ctx, local); err != nil {
				s.logger.Error("Failed to unlink stale account",
					zap.String("account_id", local.ID.String()),
					zap.Error(err))
				continue
			}
			result.AccountsUnlinked++

			removed, err := s.txnRepo.DeleteStaleForAccount(ctx, local.ID, nil)
			if err != nil {
				s.logger.Error("Failed to remove imports of vanished account",
					zap.String("account_id", local.ID.String()),
					zap.Error(err))
				continue
			}
			result.TransactionsRemoved += int(removed)
		}
	}

	conn.MarkSynced()
	if err := s.connectionRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to save synced connection", zap.Error(err))
	}

	s.logger.Info("Connection synced",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("accounts_linked", result.AccountsLinked),
		zap.Int("transactions_imported", result.TransactionsImported))
	return result, nil
}

func (s *Service) upsertAccount(ctx context.Context, conn *banking.Connection, remote banking.RemoteAccount, result *SyncResult) (*ledger.Account, error) {
	local, err := s.accountRepo.FindByProviderAccountID(ctx, conn.ID, remote.ID)
	if err == nil && local != nil {
		local.ApplySyncedBalance(remote.Balance)
		if err := s.accountRepo.Save(ctx, local); err != nil {
			s.logger.Error("Failed to save synced account", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to sync accounts")
		}
		result.AccountsUpdated++
		return local, nil
	}

	local, err = ledger.NewLinkedAccount(conn.UserID, conn.ID, remote.ID,
		remote.Name, accountTypeForNature(remote.Nature), remote.Currency, remote.Balance)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, local); err != nil {
		s.logger.Error("Failed to save linked account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to sync accounts")
	}
	result.AccountsLinked++
	return local, nil
}

func (s *Service) importTransactions(ctx context.Context, conn *banking.Connection, account *ledger.Account, remoteAccountID string, result *SyncResult) error {
	remoteTxns, err := s.provider.ListTransactions(ctx, conn.ProviderConnectionID, remoteAccountID, "")
	if err != nil {
		return s.syncFailure(ctx, conn, err)
	}

	keep := make([]string, 0, len(remoteTxns))
	var batch []*ledger.Transaction
	for _, rt := range remoteTxns {
		keep = append(keep, rt.ID)
		exists, err := s.txnRepo.ExistsByProviderTransactionID(ctx, conn.ID, rt.ID)
		if err != nil {
			s.logger.Error("Failed to check imported transaction", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to sync transactions")
		}
		if exists {
			continue
		}
		txn, err := ledger.NewBankTransaction(conn.UserID, account.ID, conn.ID,
			rt.ID, rt.Amount, rt.Currency, rt.MadeOn, rt.Description)
		if err != nil {
			s.logger.Warn("Skipping invalid provider transaction",
				zap.String("provider_txn_id", rt.ID),
				zap.Error(err))
			continue
		}
		batch = append(batch, txn)
	}

	if len(batch) > 0 {
		if err := s.txnRepo.SaveBatch(ctx, batch); err != nil {
			s.logger.Error("Failed to save imported transactions", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to sync transactions")
		}
		result.TransactionsImported += len(batch)
	}

	// Imports the provider no longer reports were pending entries that got
	// reversed; drop them so the ledger mirrors the bank.
	removed, err := s.txnRepo.DeleteStaleForAccount(ctx, account.ID, keep)
	if err != nil {
		s.logger.Error("Failed to remove stale imports", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to sync transactions")
	}
	result.TransactionsRemoved += int(removed)
	return nil
}

// syncFailure records a provider error on the connection and maps it
func (s *Service) syncFailure(ctx context.Context, conn *banking.Connection, err error) error {
	if errors.Is(err, banking.ErrConsentExpired) {
		conn.Deactivate()
	} else {
		conn.MarkFailed(err.Error())
	}
	if saveErr := s.connectionRepo.Save(ctx, conn); saveErr != nil {
		s.logger.Error("Failed to save connection after sync failure", zap.Error(saveErr))
	}
	return s.providerError(err)
}

// GetConnection returns a connection owned by the user
func (s *Service) GetConnection(ctx context.Context, userID, id uuid.UUID) (*banking.Connection, error) {
	conn, err := s.connectionRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("CONNECTION_NOT_FOUND", "Connection not found")
	}
	return conn, nil
}

// ListConnections returns the user's bank connections
func (s *Service) ListConnections(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]banking.Connection, error) {
	conns, err := s.connectionRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to list connections", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list connections")
	}
	return conns, nil
}

// SyncConnection syncs a connection on behalf of its owner
func (s *Service) SyncConnection(ctx context.Context, userID, id uuid.UUID) (*SyncResult, error) {
	if _, err := s.connectionRepo.FindByIDForUser(ctx, userID, id); err != nil {
		return nil, shared.NewDomainError("CONNECTION_NOT_FOUND", "Connection not found")
	}
	return s.Sync(ctx, id)
}

// Revoke removes a bank link. The provider-side connection is deleted, the
// linked accounts become manual accounts and the local record is removed.
// Imported transactions stay in the ledger.
func (s *Service) Revoke(ctx context.Context, userID, id uuid.UUID) error {
	conn, err := s.connectionRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return shared.NewDomainError("CONNECTION_NOT_FOUND", "Connection not found")
	}

	if err := s.provider.RemoveConnection(ctx, conn.ProviderConnectionID); err != nil &&
		!errors.Is(err, banking.ErrConnectionNotFound) {
		s.logger.Error("Failed to remove provider connection",
			zap.String("provider_connection_id", conn.ProviderConnectionID),
			zap.Error(err))
		return s.providerError(err)
	}

	s.unlinkAccounts(ctx, conn.ID)

	if err := s.connectionRepo.Delete(ctx, conn.ID); err != nil {
		s.logger.Error("Failed to delete connection", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke connection")
	}

	s.logger.Info("Connection revoked",
		zap.String("connection_id", conn.ID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// SyncActive asks the provider to refresh every active connection. The
// refreshed data arrives through webhooks. Called by the background job;
// returns the number of refreshes requested.
func (s *Service) SyncActive(ctx context.Context) (int, error) {
	conns, err := s.connectionRepo.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	requested := 0
	for i := range conns {
		conn := &conns[i]
		if conn.ConsentExpired(time.Now()) {
			conn.Deactivate()
			if err := s.connectionRepo.Save(ctx, conn); err != nil {
				s.logger.Error("Failed to deactivate expired connection", zap.Error(err))
			}
			continue
		}
		if err := s.provider.RefreshConnection(ctx, conn.ProviderConnectionID); err != nil {
			s.logger.Warn("Refresh request failed",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err))
			continue
		}
		requested++
	}
	return requested, nil
}

func (s *Service) unlinkAccounts(ctx context.Context, connectionID uuid.UUID) {
	accounts, err := s.accountRepo.FindByConnection(ctx, connectionID)
	if err != nil {
		s.logger.Error("Failed to load linked accounts", zap.Error(err))
		return
	}
	for i := range accounts {
		account := &accounts[i]
		account.Unlink()
		if err := s.accountRepo.Save(ctx, account); err != nil {
			s.logger.Error("Failed to unlink account",
				zap.String("account_id", account.ID.String()),
				zap.Error(err))
		}
	}
}

// providerError maps provider sentinel errors onto domain errors
func (s *Service) providerError(err error) error {
	switch {
	case errors.Is(err, banking.ErrConsentExpired):
		return shared.NewDomainError("CONSENT_EXPIRED", "Bank consent expired, reconnect required")
	case errors.Is(err, banking.ErrRateLimited):
		return shared.NewDomainError("RATE_LIMITED", "Banking provider rate limit exceeded")
	case errors.Is(err, banking.ErrConnectionNotFound):
		return shared.NewDomainError("CONNECTION_NOT_FOUND", "Connection not found at provider")
	case errors.Is(err, banking.ErrCustomerNotFound):
		return shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found at provider")
	case errors.Is(err, banking.ErrProviderUnavailable):
		return shared.NewDomainError("PROVIDER_UNAVAILABLE", "Banking provider is unavailable")
	default:
		return shared.NewDomainError("PROVIDER_ERROR", "Banking provider request failed")
	}
}

// accountTypeForNature maps the provider's account nature onto a local type
func accountTypeForNature(nature string) ledger.AccountType {
	switch nature {
	case "savings":
		return ledger.AccountTypeSavings
	case "card", "credit_card", "debit_card":
		return ledger.AccountTypeCreditCard
	case "investment", "bonus":
		return ledger.AccountTypeInvestment
	case "loan", "mortgage", "credit":
		return ledger.AccountTypeLoan
	default:
		return ledger.AccountTypeChecking
	}
}
