package banking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CallbackType is the kind of provider webhook delivery
type CallbackType string

const (
	CallbackSuccess CallbackType = "success"
	CallbackFailure CallbackType = "failure"
	CallbackNotify  CallbackType = "notify"
	CallbackDestroy CallbackType = "destroy"
)

// CallbackPayload is the decoded body of a provider webhook. The interface
// layer parses the provider's JSON envelope into this before handing it to
// the service.
type CallbackPayload struct {
	Type         CallbackType
	ConnectionID string
	CustomerID   string
	// Stage is the provider's progress marker for the link flow; the final
	// stage is "finish".
	Stage        string
	ErrorClass   string
	ErrorMessage string
}

// DeliveryKey identifies one webhook delivery for replay protection. The
// provider retries deliveries, and an attacker may replay captured ones;
// both collapse onto the same key.
func (p CallbackPayload) DeliveryKey() string {
	return fmt.Sprintf("%s|%s|%s", p.Type, p.ConnectionID, p.Stage)
}

// LinkSession is the redirect target for the user to authorize a bank link
type LinkSession struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SyncResult summarizes one connection sync
type SyncResult struct {
	ConnectionID         uuid.UUID `json:"connection_id"`
	AccountsLinked       int       `json:"accounts_linked"`
	AccountsUpdated      int       `json:"accounts_updated"`
	AccountsUnlinked     int       `json:"accounts_unlinked"`
	TransactionsImported int       `json:"transactions_imported"`
	TransactionsRemoved  int       `json:"transactions_removed"`
}
