package jwt

import (
	"context"
	"sync"
	"time"
)

// Store records revoked token IDs.
type Store interface {
	// Revoke marks the token ID as revoked for ttl.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	// IsRevoked reports whether the token ID is revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// MemoryStore keeps revocations in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired entries are dropped.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.cleanupInterval = d
	}
}

// NewMemoryStore starts a store with a background cleanup loop.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		tokens:          make(map[string]time.Time),
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenID] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.tokens[tokenID]
	return ok && time.Now().Before(exp), nil
}

// Close stops the cleanup loop.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// Size returns the number of tracked revocations.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.purge(time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tokenID, exp := range s.tokens {
		if now.After(exp) {
			delete(s.tokens, tokenID)
		}
	}
}

// NoopStore never revokes anything.
type NoopStore struct{}

func (NoopStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (NoopStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func (NoopStore) Close() error { return nil }
