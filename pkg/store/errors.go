package store

import (
	"os"

	"github.com/foomo/snapshotstore/pkg/codec"
	"github.com/foomo/snapshotstore/pkg/store/kv"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is wrapped when a version, patch or pointer is absent.
	ErrNotFound = errors.New("not found")
	// ErrLocked is wrapped when the throttling lock denies a read.
	ErrLocked = errors.New("locked")
	// ErrUnsupported is wrapped when a backend does not implement an operation.
	ErrUnsupported = errors.New("unsupported operation")
)

// StorageError is the only error type returned by the Storage and Collector
// contracts. Err holds the cause: a sentinel of this package,
// snapshot.ErrInvalidVersion, a *codec.Error or a transport error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsCodecError reports whether err was caused by the payload codec.
func IsCodecError(err error) bool {
	var codecErr *codec.Error
	return errors.As(err, &codecErr)
}

// newStorageError wraps err for op. Collaborator misses are translated to
// ErrNotFound and nested storage errors are not wrapped twice.
func newStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr
	}
	if !errors.Is(err, ErrNotFound) && (errors.Is(err, kv.ErrNotFound) || errors.Is(err, os.ErrNotExist)) {
		err = errors.Wrap(ErrNotFound, err.Error())
	}
	return &StorageError{Op: op, Err: err}
}

func notFound(key string) error {
	return errors.Wrapf(ErrNotFound, "%q", key)
}
