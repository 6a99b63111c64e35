package banking

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConnectionStatus represents the lifecycle of a bank link
type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusActive   ConnectionStatus = "active"
	ConnectionStatusInactive ConnectionStatus = "inactive"
	ConnectionStatusError    ConnectionStatus = "error"
)

// Connection is the local record of a user's link to a bank through the
// aggregation provider.
type Connection struct {
	shared.UserAggregateRoot
	// ProviderConnectionID is the provider-side identifier.
	ProviderConnectionID string `gorm:"type:varchar(100);not null;uniqueIndex"`
	ProviderCode         string `gorm:"type:varchar(100)"`
	ProviderName         string `gorm:"type:varchar(200)"`
	Status               ConnectionStatus `gorm:"type:varchar(10);not null;default:'pending'"`
	ConsentExpiresAt     *time.Time
	LastSyncedAt         *time.Time
	LastError            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Connection) TableName() string {
	return "banking_connections"
}

// NewConnection creates a connection record from a provider callback
func NewConnection(userID uuid.UUID, providerConnectionID, providerCode, providerName string) (*Connection, error) {
	if providerConnectionID == "" {
		return nil, shared.NewDomainError("INVALID_CONNECTION", "Provider connection ID cannot be empty")
	}
	return &Connection{
		UserAggregateRoot:    shared.NewUserAggregateRoot(userID),
		ProviderConnectionID: providerConnectionID,
		ProviderCode:         providerCode,
		ProviderName:         providerName,
		Status:               ConnectionStatusPending,
	}, nil
}

// Activate marks the connection as successfully linked
func (c *Connection) Activate(consentUntil time.Time) {
	c.Status = ConnectionStatusActive
	c.LastError = ""
	if !consentUntil.IsZero() {
		c.ConsentExpiresAt = &consentUntil
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// MarkSynced records a successful sync
func (c *Connection) MarkSynced() {
	now := time.Now()
	c.LastSyncedAt = &now
	c.LastError = ""
	c.UpdatedAt = now
	c.IncrementVersion()
}

// MarkFailed records a failed provider interaction
func (c *Connection) MarkFailed(message string) {
	c.Status = ConnectionStatusError
	c.LastError = message
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Deactivate marks the link as no longer usable (consent withdrawn or the
// connection was removed remotely).
func (c *Connection) Deactivate() {
	c.Status = ConnectionStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// IsActive reports whether the connection can be synced
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// ConsentExpired reports whether the user's consent window has lapsed
func (c *Connection) ConsentExpired(now time.Time) bool {
	return c.ConsentExpiresAt != nil && c.ConsentExpiresAt.Before(now)
}
