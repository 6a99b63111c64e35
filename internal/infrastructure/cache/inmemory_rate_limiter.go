package cache

import (
	"context"
	"sync"
	"time"

	"github.com/moneta/backend/internal/domain/identity"
)

type window struct {
	count    int
	resetsAt time.Time
}

// InMemoryRateLimiter implements identity.RateLimiter with fixed windows
// in process memory. Counters are per instance; use the Redis limiter in
// distributed deployments.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
}

// NewInMemoryRateLimiter creates an in-memory rate limiter
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]window),
	}
}

// Allow increments the counter for key and reports whether the caller is
// still within limit for the window
func (l *InMemoryRateLimiter) Allow(_ context.Context, key string, limit int, windowSize time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetsAt) {
		w = window{count: 0, resetsAt: now.Add(windowSize)}
	}
	w.count++
	l.windows[key] = w

	return w.count <= limit, nil
}

// Ensure InMemoryRateLimiter implements RateLimiter
var _ identity.RateLimiter = (*InMemoryRateLimiter)(nil)
