package kv

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Badger implements Client on an embedded Badger database. It suits single
// host deployments where producers and consumers share a volume.
type Badger struct {
	l  *zap.Logger
	db *badger.DB
}

// NewBadger opens a database in dir. An empty dir opens an in-memory database.
func NewBadger(l *zap.Logger, dir string) (*Badger, error) {
	l = l.Named("badger")
	opts := badger.DefaultOptions(dir).
		WithInMemory(dir == "").
		WithLogger(&badgerLogger{l: l.Sugar()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger")
	}
	return &Badger{l: l, db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *Badger) Del(_ context.Context, keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys scans the literal prefix of pattern and filters with path.Match.
func (b *Badger) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := pattern
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		prefix = pattern[:i]
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if ok, _ := path.Match(pattern, key); ok {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// LockScript needs no registration; the check and the write share one
// transaction and conflicting writers abort with badger.ErrConflict.
func (b *Badger) LockScript(_ context.Context) (LockScript, error) {
	return &badgerLockScript{db: b.db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

type badgerLockScript struct {
	db *badger.DB
}

func (s *badgerLockScript) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	acquired := false
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		case item.ExpiresAt() > uint64(time.Now().Unix()):
			return nil
		}
		entry := badger.NewEntry([]byte(key), []byte(LockValue)).
			WithTTL(time.Duration(ttlSeconds(ttl)) * time.Second)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return acquired, nil
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(format, args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(format, args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}
