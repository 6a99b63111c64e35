package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenPurpose distinguishes the short-lived token flows
type TokenPurpose string

const (
	TokenPurposeEmailVerification TokenPurpose = "email_verification"
	TokenPurposePasswordReset     TokenPurpose = "password_reset"
)

// TokenStore persists short-lived single-use tokens keyed by their SHA-256
// digest. Implementations must never store the plaintext token.
type TokenStore interface {
	// Put stores a token digest mapped to the owning user with a TTL.
	Put(ctx context.Context, purpose TokenPurpose, digest string, userID uuid.UUID, ttl time.Duration) error

	// Consume atomically fetches and deletes the token, returning the owning
	// user ID. Returns shared.ErrTokenInvalid when the token is unknown or
	// already consumed.
	Consume(ctx context.Context, purpose TokenPurpose, digest string) (uuid.UUID, error)

	// Revoke removes any outstanding token a user holds for the purpose.
	Revoke(ctx context.Context, purpose TokenPurpose, userID uuid.UUID) error
}

// RateLimiter guards token issuance against abuse. Counters are atomic and
// expire on their own after the window passes.
type RateLimiter interface {
	// Allow increments the counter for key and reports whether the caller is
	// still within limit for the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
