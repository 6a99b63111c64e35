package banking

import (
	"github.com/shopspring/decimal"
)

// SaltEdge wraps every request and response body in a "data" envelope.
// List endpoints additionally carry a "meta" object with the next page cursor.

type seEnvelope[T any] struct {
	Data T       `json:"data"`
	Meta *seMeta `json:"meta,omitempty"`
}

type seMeta struct {
	NextID   string `json:"next_id"`
	NextPage string `json:"next_page"`
}

type seError struct {
	Error struct {
		Class   string `json:"class"`
		Message string `json:"message"`
	} `json:"error"`
}

type seCreateCustomerRequest struct {
	Identifier string `json:"identifier"`
}

type seCustomer struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

type seDeleted struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type seConnectSessionRequest struct {
	CustomerID string            `json:"customer_id"`
	Consent    seConsentRequest  `json:"consent"`
	Attempt    *seAttemptRequest `json:"attempt,omitempty"`
}

type seConsentRequest struct {
	Scopes []string `json:"scopes"`
}

type seAttemptRequest struct {
	ReturnTo string `json:"return_to,omitempty"`
}

type seConnectSession struct {
	ExpiresAt  string `json:"expires_at"`
	ConnectURL string `json:"connect_url"`
}

type seConnection struct {
	ID           string `json:"id"`
	ProviderCode string `json:"provider_code"`
	ProviderName string `json:"provider_name"`
	Status       string `json:"status"`
	LastConsent  *struct {
		ExpiresAt string `json:"expires_at"`
	} `json:"last_consent,omitempty"`
	LastSuccessAt string `json:"last_success_at"`
}

type seRefreshRequest struct {
	Attempt *seAttemptRequest `json:"attempt,omitempty"`
}

type seAccount struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Nature   string          `json:"nature"`
	Currency string          `json:"currency_code"`
	Balance  decimal.Decimal `json:"balance"`
}

type seTransaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	MadeOn       string          `json:"made_on"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
}
