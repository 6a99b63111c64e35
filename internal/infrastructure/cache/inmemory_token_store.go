package cache

import (
	"context"
	"sync"
	"time"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/google/uuid"
)

type memoryToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// InMemoryTokenStore implements identity.TokenStore in process memory.
// Suitable for tests and single-instance development setups; state is lost
// on restart and not shared across instances.
type InMemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken // purpose:digest -> token
	index  map[string]string      // purpose:userID -> digest
}

// NewInMemoryTokenStore creates an in-memory token store
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		tokens: make(map[string]memoryToken),
		index:  make(map[string]string),
	}
}

func tokenKey(purpose identity.TokenPurpose, digest string) string {
	return string(purpose) + ":" + digest
}

func indexKey(purpose identity.TokenPurpose, userID uuid.UUID) string {
	return string(purpose) + ":" + userID.String()
}

// Put stores a token digest for the user, replacing any previous token the
// user held for the same purpose
func (s *InMemoryTokenStore) Put(_ context.Context, purpose identity.TokenPurpose, digest string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.index[indexKey(purpose, userID)]; ok {
		delete(s.tokens, tokenKey(purpose, old))
	}
	s.tokens[tokenKey(purpose, digest)] = memoryToken{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	s.index[indexKey(purpose, userID)] = digest
	return nil
}

// Consume atomically fetches and deletes the token
func (s *InMemoryTokenStore) Consume(_ context.Context, purpose identity.TokenPurpose, digest string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(purpose, digest)
	token, ok := s.tokens[key]
	if !ok || time.Now().After(token.expiresAt) {
		delete(s.tokens, key)
		return uuid.Nil, shared.ErrTokenInvalid
	}

	delete(s.tokens, key)
	delete(s.index, indexKey(purpose, token.userID))
	return token.userID, nil
}

// Revoke removes any outstanding token the user holds for the purpose
func (s *InMemoryTokenStore) Revoke(_ context.Context, purpose identity.TokenPurpose, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexKey(purpose, userID)
	if digest, ok := s.index[idx]; ok {
		delete(s.tokens, tokenKey(purpose, digest))
		delete(s.index, idx)
	}
	return nil
}

// Ensure InMemoryTokenStore implements TokenStore
var _ identity.TokenStore = (*InMemoryTokenStore)(nil)
