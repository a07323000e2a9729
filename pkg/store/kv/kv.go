// Package kv defines the key-value store collaborator used by the versioned
// snapshot storage together with Redis, Badger and SQLite implementations.
package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// LockValue is the sentinel written by the lock primitive.
const LockValue = "locked"

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("key not found")

// Client is the subset of a key-value store needed by the snapshot storage.
// Implementations must be safe for concurrent use.
type Client interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key without expiry.
	Set(ctx context.Context, key string, value []byte) error
	// Del removes all given keys in one call.
	Del(ctx context.Context, keys ...string) error
	// Keys returns the keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// LockScript registers the atomic lock primitive against the store.
	LockScript(ctx context.Context) (LockScript, error)
	// Close releases the underlying connection or database.
	Close() error
}

// LockScript is the atomic "set with ttl unless a ttl is active" primitive.
type LockScript interface {
	// Acquire stores LockValue under key with ttl if key has no active ttl
	// and reports whether it did.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ttlSeconds rounds a ttl up to whole seconds, the resolution of every backend.
func ttlSeconds(ttl time.Duration) int64 {
	seconds := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
