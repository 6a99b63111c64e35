package banking

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/banking"
)

const (
	saltEdgeDateLayout    = "2006-01-02"
	saltEdgeSignatureSkew = 60 * time.Second
)

// SaltEdgeAdapter implements banking.Provider on top of the SaltEdge
// Account Information API v5.
type SaltEdgeAdapter struct {
	config *SaltEdgeConfig
	client *http.Client
	logger *zap.Logger
}

// NewSaltEdgeAdapter creates a SaltEdge adapter with the given configuration
func NewSaltEdgeAdapter(config *SaltEdgeConfig, logger *zap.Logger) (*SaltEdgeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SaltEdgeAdapter{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// CreateCustomer registers an end user at SaltEdge and returns the
// provider-side customer ID
func (a *SaltEdgeAdapter) CreateCustomer(ctx context.Context, identifier string) (string, error) {
	body := seEnvelope[seCreateCustomerRequest]{
		Data: seCreateCustomerRequest{Identifier: identifier},
	}

	var resp seEnvelope[seCustomer]
	if err := a.do(ctx, http.MethodPost, "/customers", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// RemoveCustomer deletes a customer and all of its connections
func (a *SaltEdgeAdapter) RemoveCustomer(ctx context.Context, customerID string) error {
	var resp seEnvelope[seDeleted]
	return a.do(ctx, http.MethodDelete, "/customers/"+customerID, nil, nil, &resp)
}

// CreateConnectSession starts the hosted link flow for a customer
func (a *SaltEdgeAdapter) CreateConnectSession(ctx context.Context, customerID, returnTo string) (*banking.ConnectSession, error) {
	req := seConnectSessionRequest{
		CustomerID: customerID,
		Consent:    seConsentRequest{Scopes: []string{"account_details", "transactions_details"}},
	}
	if returnTo != "" {
		req.Attempt = &seAttemptRequest{ReturnTo: returnTo}
	}

	var resp seEnvelope[seConnectSession]
	if err := a.do(ctx, http.MethodPost, "/connect_sessions/create", nil, seEnvelope[seConnectSessionRequest]{Data: req}, &resp); err != nil {
		return nil, err
	}

	expiresAt, err := time.Parse(time.RFC3339, resp.Data.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable session expiry %q", banking.ErrProviderRequestError, resp.Data.ExpiresAt)
	}

	return &banking.ConnectSession{
		URL:       resp.Data.ConnectURL,
		ExpiresAt: expiresAt,
	}, nil
}

// FetchConnection retrieves the current state of a connection
func (a *SaltEdgeAdapter) FetchConnection(ctx context.Context, connectionID string) (*banking.RemoteConnection, error) {
	var resp seEnvelope[seConnection]
	if err := a.do(ctx, http.MethodGet, "/connections/"+connectionID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return mapRemoteConnection(resp.Data), nil
}

// RefreshConnection asks SaltEdge to pull fresh data. The refresh runs
// asynchronously; completion arrives through the success webhook.
func (a *SaltEdgeAdapter) RefreshConnection(ctx context.Context, connectionID string) error {
	var resp seEnvelope[seConnection]
	body := seEnvelope[seRefreshRequest]{Data: seRefreshRequest{}}
	return a.do(ctx, http.MethodPut, "/connections/"+connectionID+"/refresh", nil, body, &resp)
}

// RemoveConnection revokes the bank link at SaltEdge
func (a *SaltEdgeAdapter) RemoveConnection(ctx context.Context, connectionID string) error {
	var resp seEnvelope[seDeleted]
	return a.do(ctx, http.MethodDelete, "/connections/"+connectionID, nil, nil, &resp)
}

// ListAccounts lists the accounts of a connection, following pagination
// to exhaustion
func (a *SaltEdgeAdapter) ListAccounts(ctx context.Context, connectionID string) ([]banking.RemoteAccount, error) {
	var accounts []banking.RemoteAccount

	fromID := ""
	for {
		query := url.Values{}
		query.Set("connection_id", connectionID)
		query.Set("per_page", strconv.Itoa(a.config.PageSize))
		if fromID != "" {
			query.Set("from_id", fromID)
		}

		var resp seEnvelope[[]seAccount]
		if err := a.do(ctx, http.MethodGet, "/accounts", query, nil, &resp); err != nil {
			return nil, err
		}

		for _, acc := range resp.Data {
			accounts = append(accounts, banking.RemoteAccount{
				ID:       acc.ID,
				Name:     acc.Name,
				Nature:   acc.Nature,
				Currency: acc.Currency,
				Balance:  acc.Balance,
			})
		}

		if resp.Meta == nil || resp.Meta.NextID == "" {
			return accounts, nil
		}
		fromID = resp.Meta.NextID
	}
}

// ListTransactions lists posted transactions of an account starting after
// fromID, following pagination to exhaustion
func (a *SaltEdgeAdapter) ListTransactions(ctx context.Context, connectionID, accountID, fromID string) ([]banking.RemoteTransaction, error) {
	var transactions []banking.RemoteTransaction

	for {
		query := url.Values{}
		query.Set("connection_id", connectionID)
		query.Set("account_id", accountID)
		query.Set("per_page", strconv.Itoa(a.config.PageSize))
		if fromID != "" {
			query.Set("from_id", fromID)
		}

		var resp seEnvelope[[]seTransaction]
		if err := a.do(ctx, http.MethodGet, "/transactions", query, nil, &resp); err != nil {
			return nil, err
		}

		for _, txn := range resp.Data {
			madeOn, err := time.Parse(saltEdgeDateLayout, txn.MadeOn)
			if err != nil {
				a.logger.Warn("skipping transaction with unparseable date",
					zap.String("transaction_id", txn.ID),
					zap.String("made_on", txn.MadeOn))
				continue
			}
			transactions = append(transactions, banking.RemoteTransaction{
				ID:          txn.ID,
				AccountID:   txn.AccountID,
				Amount:      txn.Amount,
				Currency:    txn.CurrencyCode,
				MadeOn:      madeOn,
				Description: txn.Description,
				Status:      txn.Status,
			})
		}

		if resp.Meta == nil || resp.Meta.NextID == "" {
			return transactions, nil
		}
		fromID = resp.Meta.NextID
	}
}

// VerifyCallbackSecret checks the shared secret SaltEdge sends on webhook
// callbacks. Returns banking.ErrInvalidSignature on mismatch.
func (a *SaltEdgeAdapter) VerifyCallbackSecret(secret string) error {
	if a.config.CallbackSecret == "" {
		return nil
	}
	if secret != a.config.CallbackSecret {
		return banking.ErrInvalidSignature
	}
	return nil
}

// do performs a signed request against the SaltEdge API and decodes the
// response envelope into out
func (a *SaltEdgeAdapter) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fullURL := strings.TrimSuffix(a.config.BaseURL, "/") + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", banking.ErrProviderRequestError, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", banking.ErrProviderRequestError, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-id", a.config.AppID)
	req.Header.Set("Secret", a.config.Secret)

	if a.config.PrivateKey != nil {
		expiresAt := time.Now().Add(saltEdgeSignatureSkew).Unix()
		signature, err := a.sign(expiresAt, method, fullURL, payload)
		if err != nil {
			return err
		}
		req.Header.Set("Expires-at", strconv.FormatInt(expiresAt, 10))
		req.Header.Set("Signature", signature)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", banking.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", banking.ErrProviderRequestError, err)
	}

	if resp.StatusCode >= 400 {
		return a.mapError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", banking.ErrProviderRequestError, err)
		}
	}
	return nil
}

// sign produces the SaltEdge request signature:
// base64(rsa-sha256("expires_at|verb|url|body"))
func (a *SaltEdgeAdapter) sign(expiresAt int64, method, fullURL string, body []byte) (string, error) {
	message := fmt.Sprintf("%d|%s|%s|%s", expiresAt, method, fullURL, body)

	digest := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPKCS1v15(rand.Reader, a.config.PrivateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: sign request: %v", banking.ErrProviderRequestError, err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// mapError maps a SaltEdge error response onto the domain provider errors
func (a *SaltEdgeAdapter) mapError(status int, body []byte) error {
	var seErr seError
	_ = json.Unmarshal(body, &seErr)

	class := seErr.Error.Class
	message := seErr.Error.Message

	a.logger.Warn("saltedge request failed",
		zap.Int("status", status),
		zap.String("class", class),
		zap.String("message", message))

	switch {
	case class == "CustomerNotFound":
		return fmt.Errorf("%w: %s", banking.ErrCustomerNotFound, message)
	case class == "ConnectionNotFound" || class == "LoginNotFound":
		return fmt.Errorf("%w: %s", banking.ErrConnectionNotFound, message)
	case class == "DuplicatedCustomer":
		return fmt.Errorf("%w: %s", banking.ErrDuplicateCustomer, message)
	case class == "ConsentExpired" || class == "ConnectionCannotBeRefreshed":
		return fmt.Errorf("%w: %s", banking.ErrConsentExpired, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", banking.ErrRateLimited, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", banking.ErrConnectionNotFound, message)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", banking.ErrProviderUnavailable, status, message)
	default:
		return fmt.Errorf("%w: status %d (%s): %s", banking.ErrProviderRequestError, status, class, message)
	}
}

func mapRemoteConnection(conn seConnection) *banking.RemoteConnection {
	remote := &banking.RemoteConnection{
		ID:           conn.ID,
		ProviderCode: conn.ProviderCode,
		ProviderName: conn.ProviderName,
		Status:       conn.Status,
	}
	if conn.LastConsent != nil {
		if t, err := time.Parse(time.RFC3339, conn.LastConsent.ExpiresAt); err == nil {
			remote.ConsentUntil = t
		}
	}
	if t, err := time.Parse(time.RFC3339, conn.LastSuccessAt); err == nil {
		remote.LastSuccess = t
	}
	return remote
}

// Ensure SaltEdgeAdapter implements Provider
var _ banking.Provider = (*SaltEdgeAdapter)(nil)
