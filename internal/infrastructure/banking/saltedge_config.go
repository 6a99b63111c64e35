package banking

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// Errors for configuration validation
var (
	ErrSaltEdgeMissingAppID      = errors.New("saltedge: missing app ID")
	ErrSaltEdgeMissingSecret     = errors.New("saltedge: missing secret")
	ErrSaltEdgeMissingBaseURL    = errors.New("saltedge: missing base URL")
	ErrSaltEdgeInvalidPrivateKey = errors.New("saltedge: invalid private key format")
)

// SaltEdgeConfig contains configuration for the SaltEdge Account Information API.
// Every request carries the App-id and Secret headers; when a private key is
// configured, requests are additionally signed with RSA-SHA256.
type SaltEdgeConfig struct {
	// AppID is the SaltEdge application ID
	AppID string
	// Secret is the SaltEdge application secret
	Secret string
	// BaseURL is the API root, e.g. https://www.saltedge.com/api/v5
	BaseURL string
	// PrivateKey signs requests when set (optional)
	PrivateKey *rsa.PrivateKey
	// CallbackSecret is the shared secret expected on webhook callbacks
	CallbackSecret string
	// RequestTimeout bounds individual HTTP requests
	RequestTimeout time.Duration
	// PageSize is the per_page value used when listing resources
	PageSize int
}

// Validate validates the configuration
func (c *SaltEdgeConfig) Validate() error {
	if c.AppID == "" {
		return ErrSaltEdgeMissingAppID
	}
	if c.Secret == "" {
		return ErrSaltEdgeMissingSecret
	}
	if c.BaseURL == "" {
		return ErrSaltEdgeMissingBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	return nil
}

// LoadPrivateKey loads the signing key from a PEM file. An empty path
// disables request signing.
func (c *SaltEdgeConfig) LoadPrivateKey(path string) error {
	if path == "" {
		return nil
	}

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("saltedge: failed to read private key file: %w", err)
	}

	key, err := parsePrivateKeyPEM(pemBytes)
	if err != nil {
		return err
	}
	c.PrivateKey = key
	return nil
}

func parsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrSaltEdgeInvalidPrivateKey
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrSaltEdgeInvalidPrivateKey
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrSaltEdgeInvalidPrivateKey
	}
	return key, nil
}
