package cache

import (
	"context"
	"sync"
	"time"

	"github.com/moneta/backend/internal/domain/banking"
)

// InMemoryReplayGuard implements banking.ReplayGuard in process memory.
// Suitable for tests and single-instance deployments.
type InMemoryReplayGuard struct {
	mu        sync.Mutex
	processed map[string]time.Time
	ttl       time.Duration
}

// NewInMemoryReplayGuard creates an in-memory replay guard
func NewInMemoryReplayGuard(ttl time.Duration) *InMemoryReplayGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InMemoryReplayGuard{
		processed: make(map[string]time.Time),
		ttl:       ttl,
	}
}

// MarkProcessed marks a webhook delivery as processed.
// Returns true if the delivery was newly marked, false on a replay.
func (g *InMemoryReplayGuard) MarkProcessed(_ context.Context, deliveryID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if seen, ok := g.processed[deliveryID]; ok && now.Sub(seen) < g.ttl {
		return false, nil
	}
	g.processed[deliveryID] = now
	return true, nil
}

// Ensure InMemoryReplayGuard implements ReplayGuard
var _ banking.ReplayGuard = (*InMemoryReplayGuard)(nil)
