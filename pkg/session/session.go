// Package session persists the portal session token.
//
// The transport only reads the token (see Provider); login writes it and
// logout or a failed verification clears it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"

	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// ErrNoToken is returned by Load when no token is stored.
var ErrNoToken = errors.New("no session token")

// Store keeps a single session token.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Provider adapts a Store to rest.TokenProvider. Read failures other than
// ErrNoToken are logged and reported as "no token".
func Provider(store Store, log core.Logger) rest.TokenProvider {
	return func(ctx context.Context) (string, bool) {
		token, err := store.Load(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				l := log
				if l == nil {
					l = logger.Global()
				}
				l.Warnw("failed to read session token", "error", err)
			}
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
