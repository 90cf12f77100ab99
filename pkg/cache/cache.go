// Package cache provides generic, thread-safe cache implementations with
// built-in statistics and optional Prometheus metrics integration.
package cache

import (
	"errors"
	"strings"
)

// Cache represents a generic cache interface that all implementations
// satisfy. The cache is parameterized by value type V for type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry
	// was created, false if an existing entry was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns the keys of all live entries, in no particular order.
	Keys() []string

	// Stats returns the cache's statistics tracker.
	Stats() *Statistics

	// Close shuts down the cache and releases any background resources.
	Close() error
}

// EvictCallback is called when an entry is evicted from the cache.
type EvictCallback[V any] func(key string, value V)

// ErrInvalidKey is returned for keys the cache refuses to store.
var ErrInvalidKey = errors.New("cache: invalid key")

// validateKey rejects keys that cannot be stored or would be ambiguous.
func validateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
