package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements identity.RateLimiter with a fixed-window
// counter. Counters expire on their own after the window passes.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRateLimiter creates a Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: "ratelimit:",
	}
}

// Allow increments the counter for key and reports whether the caller is
// still within limit for the window
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := l.keyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	// First hit in the window starts the expiry clock
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate counter expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Ensure RedisRateLimiter implements RateLimiter
var _ identity.RateLimiter = (*RedisRateLimiter)(nil)
