// Package id provides unique ID generation for campus-portal.
//
// IDs are ULIDs: time-sortable, 26 characters, safe in URLs. They are used
// for request IDs on outgoing calls and for record IDs in the devserver.
package id

import "sync"

// Generator defines the interface for ID generators.
type Generator interface {
	// Generate creates a new unique ID.
	Generate() string
}

var (
	defaultULID Generator
	initOnce    sync.Once
)

func initDefaults() {
	initOnce.Do(func() {
		defaultULID = NewULIDGenerator()
	})
}

// NewULID generates a new ULID string.
func NewULID() string {
	initDefaults()
	return defaultULID.Generate()
}

// NewRequestID generates an ID for the X-Request-ID header.
func NewRequestID() string {
	return NewULID()
}
