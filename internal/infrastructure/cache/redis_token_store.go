package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore implements identity.TokenStore using Redis.
//
// Two keys exist per outstanding token: the digest key maps the token's
// SHA-256 digest to the owning user, and a per-user index key maps the user
// back to the digest so issuing a new token (or revoking) can invalidate
// the previous one. Plaintext tokens never reach Redis.
type RedisTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenStore creates a Redis-backed token store
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{
		client:    client,
		keyPrefix: "auth:token:",
	}
}

func (s *RedisTokenStore) digestKey(purpose identity.TokenPurpose, digest string) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, purpose, digest)
}

func (s *RedisTokenStore) userKey(purpose identity.TokenPurpose, userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:user:%s", s.keyPrefix, purpose, userID)
}

// Put stores a token digest for the user, replacing any previous token the
// user held for the same purpose.
func (s *RedisTokenStore) Put(ctx context.Context, purpose identity.TokenPurpose, digest string, userID uuid.UUID, ttl time.Duration) error {
	userKey := s.userKey(purpose, userID)

	oldDigest, err := s.client.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read token index: %w", err)
	}

	pipe := s.client.TxPipeline()
	if oldDigest != "" {
		pipe.Del(ctx, s.digestKey(purpose, oldDigest))
	}
	pipe.Set(ctx, s.digestKey(purpose, digest), userID.String(), ttl)
	pipe.Set(ctx, userKey, digest, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the token, returning the owning
// user ID. Unknown or already-consumed tokens yield shared.ErrTokenInvalid.
func (s *RedisTokenStore) Consume(ctx context.Context, purpose identity.TokenPurpose, digest string) (uuid.UUID, error) {
	value, err := s.client.GetDel(ctx, s.digestKey(purpose, digest)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, shared.ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume token: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, shared.ErrTokenInvalid
	}

	// Best effort: the index entry expires on its own if this fails.
	s.client.Del(ctx, s.userKey(purpose, userID))

	return userID, nil
}

// Revoke removes any outstanding token the user holds for the purpose
func (s *RedisTokenStore) Revoke(ctx context.Context, purpose identity.TokenPurpose, userID uuid.UUID) error {
	userKey := s.userKey(purpose, userID)

	digest, err := s.client.GetDel(ctx, userKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if err := s.client.Del(ctx, s.digestKey(purpose, digest)).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Ensure RedisTokenStore implements TokenStore
var _ identity.TokenStore = (*RedisTokenStore)(nil)
