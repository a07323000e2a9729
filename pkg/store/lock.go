package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foomo/snapshotstore/pkg/store/kv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultLockKey = "snapshots_lock"
	DefaultLockTTL = 5 * time.Second
)

type (
	// Lock throttles expensive reads: at most one Acquire per TTL window
	// succeeds across all processes sharing the key. There is no unlock, the
	// key simply expires.
	Lock struct {
		l            *zap.Logger
		client       kv.Client
		key          string
		ttl          time.Duration
		ignoreOnce   atomic.Bool
		ignoreAlways bool
		// script is registered on first use and cached
		script   kv.LockScript
		scriptMu sync.Mutex
	}
	LockOption func(*Lock)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func LockWithKey(v string) LockOption {
	return func(o *Lock) {
		o.key = v
	}
}

func LockWithTTL(v time.Duration) LockOption {
	return func(o *Lock) {
		o.ttl = v
	}
}

// LockWithIgnoreOnce lets the first Acquire after construction pass
// regardless of the lock state. Enabled by default.
func LockWithIgnoreOnce(v bool) LockOption {
	return func(o *Lock) {
		o.ignoreOnce.Store(v)
	}
}

// LockWithIgnoreAlways disables the lock.
func LockWithIgnoreAlways(v bool) LockOption {
	return func(o *Lock) {
		o.ignoreAlways = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewLock(l *zap.Logger, client kv.Client, opts ...LockOption) *Lock {
	inst := &Lock{
		l:      l.Named("lock"),
		client: client,
		key:    DefaultLockKey,
		ttl:    DefaultLockTTL,
	}
	inst.ignoreOnce.Store(true)

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Acquire reports whether the caller may proceed. A failed script
// registration or a transport failure is returned as error, never as denial.
func (k *Lock) Acquire(ctx context.Context) (bool, error) {
	if k.ignoreAlways {
		return true, nil
	}
	if k.ignoreOnce.CompareAndSwap(true, false) {
		k.l.Debug("ignoring lock once", zap.String("key", k.key))
		return true, nil
	}

	script, err := k.lockScript(ctx)
	if err != nil {
		return false, err
	}

	ok, err := script.Acquire(ctx, k.key, k.ttl)
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return ok, nil
}

func (k *Lock) Key() string {
	return k.key
}

func (k *Lock) TTL() time.Duration {
	return k.ttl
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (k *Lock) lockScript(ctx context.Context) (kv.LockScript, error) {
	k.scriptMu.Lock()
	defer k.scriptMu.Unlock()

	if k.script != nil {
		return k.script, nil
	}
	script, err := k.client.LockScript(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register lock script")
	}
	k.script = script
	return script, nil
}
