// Package objects defines the object store collaborator used by the object
// snapshot storage, with gocloud blob and local filesystem implementations.
package objects

import (
	"context"
)

// Client addresses opaque objects by string keys.
// Implementations must be safe for concurrent use.
type Client interface {
	// Write stores data under key, replacing any previous object.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the object stored under key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns the keys starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object under key.
	// Returns nil if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Close releases the bucket or directory handle.
	Close() error
}
