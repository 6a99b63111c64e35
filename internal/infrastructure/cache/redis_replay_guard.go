package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/moneta/backend/internal/domain/banking"
	"github.com/redis/go-redis/v9"
)

// RedisReplayGuard implements banking.ReplayGuard using Redis.
// SETNX makes marking atomic across instances: the first delivery wins,
// replays within the TTL are rejected.
type RedisReplayGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReplayGuard creates a Redis-backed replay guard
func NewRedisReplayGuard(client *redis.Client, ttl time.Duration) *RedisReplayGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisReplayGuard{
		client:    client,
		keyPrefix: "banking:webhook:",
		ttl:       ttl,
	}
}

// MarkProcessed marks a webhook delivery as processed.
// Returns true if the delivery was newly marked, false on a replay.
func (g *RedisReplayGuard) MarkProcessed(ctx context.Context, deliveryID string) (bool, error) {
	key := g.keyPrefix + deliveryID

	result, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark webhook delivery: %w", err)
	}
	return result, nil
}

// Ensure RedisReplayGuard implements ReplayGuard
var _ banking.ReplayGuard = (*RedisReplayGuard)(nil)
