// Package storage defines the backend client contract shared by the
// devserver database and the Redis session backend, plus a registry that
// health-checks and closes them together.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/campus-portal/pkg/infra/pool"
)

var (
	// ErrClientNotFound is returned by Get for unknown names.
	ErrClientNotFound = errors.New("storage client not found")
	// ErrClientAlreadyExists is returned by Register for duplicate names.
	ErrClientAlreadyExists = errors.New("storage client already registered")
)

// Client is implemented by every backend connection.
type Client interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// HealthStatus is the outcome of one health check.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Manager is a registry of named clients. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]Client)}
}

// Register adds a client under name.
func (m *Manager) Register(name string, client Client) error {
	if name == "" || client == nil {
		return fmt.Errorf("storage: name and client are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return fmt.Errorf("%w: %s", ErrClientAlreadyExists, name)
	}
	m.clients[name] = client
	return nil
}

// Get returns the client registered under name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
	}
	return c, nil
}

// List returns the registered names in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll pings every client concurrently on p. A nil pool runs the
// checks one after another.
func (m *Manager) HealthCheckAll(ctx context.Context, p *pool.Pool) []HealthStatus {
	names := m.List()
	statuses := make([]HealthStatus, len(names))

	check := func(ctx context.Context, i int) error {
		c, err := m.Get(names[i])
		if err != nil {
			statuses[i] = HealthStatus{Name: names[i], Error: err.Error()}
			return nil
		}
		start := time.Now()
		err = c.Ping(ctx)
		statuses[i] = HealthStatus{Name: names[i], Healthy: err == nil, Latency: time.Since(start)}
		if err != nil {
			statuses[i].Error = err.Error()
		}
		return nil
	}

	if p == nil {
		for i := range names {
			_ = check(ctx, i)
		}
		return statuses
	}
	for i, err := range p.Map(ctx, len(names), check) {
		if err != nil {
			statuses[i] = HealthStatus{Name: names[i], Error: err.Error()}
		}
	}
	return statuses
}

// CloseAll closes and unregisters every client, returning the joined errors.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.clients = make(map[string]Client)
	return errors.Join(errs...)
}
