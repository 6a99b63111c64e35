package cache

import (
	"context"
	"testing"
	"time"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenStore_PutConsume(t *testing.T) {
	store := NewInMemoryTokenStore()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Put(ctx, identity.TokenPurposeEmailVerification, "digest-1", userID, time.Hour))

	got, err := store.Consume(ctx, identity.TokenPurposeEmailVerification, "digest-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// Second consume fails: tokens are single use
	_, err = store.Consume(ctx, identity.TokenPurposeEmailVerification, "digest-1")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestInMemoryTokenStore_PurposesAreIsolated(t *testing.T) {
	store := NewInMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, identity.TokenPurposeEmailVerification, "digest-1", uuid.New(), time.Hour))

	_, err := store.Consume(ctx, identity.TokenPurposePasswordReset, "digest-1")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestInMemoryTokenStore_NewTokenReplacesOld(t *testing.T) {
	store := NewInMemoryTokenStore()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Put(ctx, identity.TokenPurposePasswordReset, "old", userID, time.Hour))
	require.NoError(t, store.Put(ctx, identity.TokenPurposePasswordReset, "new", userID, time.Hour))

	_, err := store.Consume(ctx, identity.TokenPurposePasswordReset, "old")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid, "issuing a new token invalidates the previous one")

	got, err := store.Consume(ctx, identity.TokenPurposePasswordReset, "new")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestInMemoryTokenStore_Expiry(t *testing.T) {
	store := NewInMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, identity.TokenPurposeEmailVerification, "digest-1", uuid.New(), -time.Second))

	_, err := store.Consume(ctx, identity.TokenPurposeEmailVerification, "digest-1")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestInMemoryTokenStore_Revoke(t *testing.T) {
	store := NewInMemoryTokenStore()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Put(ctx, identity.TokenPurposePasswordReset, "digest-1", userID, time.Hour))
	require.NoError(t, store.Revoke(ctx, identity.TokenPurposePasswordReset, userID))

	_, err := store.Consume(ctx, identity.TokenPurposePasswordReset, "digest-1")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	// Revoking with nothing outstanding is a no-op
	assert.NoError(t, store.Revoke(ctx, identity.TokenPurposePasswordReset, userID))
}

func TestInMemoryRateLimiter_Allow(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}

	ok, err := limiter.Allow(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fourth attempt exceeds the limit")

	// Different keys have independent windows
	ok, err = limiter.Allow(ctx, "user-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryRateLimiter_WindowReset(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "user-1", 1, time.Nanosecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(2 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "counter resets after the window passes")
}

func TestInMemoryReplayGuard_MarkProcessed(t *testing.T) {
	guard := NewInMemoryReplayGuard(time.Hour)
	ctx := context.Background()

	first, err := guard.MarkProcessed(ctx, "delivery-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := guard.MarkProcessed(ctx, "delivery-1")
	require.NoError(t, err)
	assert.False(t, second, "replayed delivery is rejected")

	other, err := guard.MarkProcessed(ctx, "delivery-2")
	require.NoError(t, err)
	assert.True(t, other)
}
