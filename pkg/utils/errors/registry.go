package errors

import (
	"fmt"
	"sync"
)

var (
	errnoRegistry = make(map[int]*Errno)
	registryMu    sync.RWMutex
)

// Register registers an Errno and validates uniqueness.
// Panics if the code is already registered.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := errnoRegistry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.MessageEN))
	}
	errnoRegistry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for the given code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := errnoRegistry[code]
	return e, ok
}

// LookupHTTP returns the first registered common Errno for an HTTP status.
// Used when only a status code is known (e.g. a server error envelope).
func LookupHTTP(status int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var found *Errno
	for _, e := range errnoRegistry {
		if e.Code == 0 || GetService(e.Code) != ServiceCommon || e.HTTP != status {
			continue
		}
		if found == nil || e.Code < found.Code {
			found = e
		}
	}
	return found, found != nil
}

// RegistrySize returns the number of registered error codes.
func RegistrySize() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(errnoRegistry)
}
