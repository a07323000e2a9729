package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLock_Defaults(t *testing.T) {
	k := NewLock(zaptest.NewLogger(t), newFakeKV())
	assert.Equal(t, DefaultLockKey, k.Key())
	assert.Equal(t, DefaultLockTTL, k.TTL())

	k = NewLock(zaptest.NewLogger(t), newFakeKV(), LockWithKey("custom"), LockWithTTL(time.Minute))
	assert.Equal(t, "custom", k.Key())
	assert.Equal(t, time.Minute, k.TTL())
}

func TestLock_Window(t *testing.T) {
	ctx := context.Background()
	f := newFakeKV()
	k := NewLock(zaptest.NewLogger(t), f, LockWithIgnoreOnce(false))

	ok, err := k.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = k.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	f.release()
	ok, err = k.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_IgnoreOnceConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFakeKV()
	f.held = true
	k := NewLock(zaptest.NewLogger(t), f)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := k.Acquire(ctx)
			assert.NoError(t, err)
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load(), "ignore once is consumed by exactly one caller")
	assert.Equal(t, 1, f.scriptLoads)
}
