package kv

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testClientContract runs the behaviour every Client must share. advance moves
// the clock of the store past a lock ttl.
func testClientContract(t *testing.T, c Client, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := c.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "snapshot:1", []byte("one")))
		value, err := c.Get(ctx, "snapshot:1")
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), value)

		require.NoError(t, c.Set(ctx, "snapshot:1", []byte("uno")))
		value, err = c.Get(ctx, "snapshot:1")
		require.NoError(t, err)
		assert.Equal(t, []byte("uno"), value)
	})

	t.Run("keys", func(t *testing.T) {
		for _, key := range []string{"snapshot:2", "snapshot:2:patch", "other:3"} {
			require.NoError(t, c.Set(ctx, key, []byte("x")))
		}
		keys, err := c.Keys(ctx, "snapshot:*")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"snapshot:1", "snapshot:2", "snapshot:2:patch"}, keys)

		keys, err = c.Keys(ctx, "nothing:*")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("del", func(t *testing.T) {
		require.NoError(t, c.Del(ctx, "snapshot:1", "snapshot:2", "never-existed"))
		_, err := c.Get(ctx, "snapshot:1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = c.Get(ctx, "snapshot:2")
		assert.ErrorIs(t, err, ErrNotFound)
		value, err := c.Get(ctx, "snapshot:2:patch")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), value)
	})

	t.Run("lock", func(t *testing.T) {
		script, err := c.LockScript(ctx)
		require.NoError(t, err)

		ok, err := script.Acquire(ctx, "snapshots_lock", time.Second)
		require.NoError(t, err)
		assert.True(t, ok, "first acquisition")

		ok, err = script.Acquire(ctx, "snapshots_lock", time.Second)
		require.NoError(t, err)
		assert.False(t, ok, "second acquisition within ttl")

		advance(2 * time.Second)

		ok, err = script.Acquire(ctx, "snapshots_lock", time.Second)
		require.NoError(t, err)
		assert.True(t, ok, "acquisition after ttl")
	})

	t.Run("lock on key without ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "plain_lock", []byte("x")))
		script, err := c.LockScript(ctx)
		require.NoError(t, err)

		ok, err := script.Acquire(ctx, "plain_lock", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedis(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedis(zaptest.NewLogger(t), client)
	t.Cleanup(func() { _ = c.Close() })

	testClientContract(t, c, m.FastForward)
}

func TestRedis_LockTTL(t *testing.T) {
	m := miniredis.RunT(t)
	c := NewRedis(zaptest.NewLogger(t), redis.NewClient(&redis.Options{Addr: m.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	script, err := c.LockScript(ctx)
	require.NoError(t, err)
	ok, err := script.Acquire(ctx, "snapshots_lock", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 5*time.Second, m.TTL("snapshots_lock"))
	value, err := m.Get("snapshots_lock")
	require.NoError(t, err)
	assert.Equal(t, LockValue, value)
}

func TestRedis_TransportErrors(t *testing.T) {
	m := miniredis.RunT(t)
	c := NewRedis(zaptest.NewLogger(t), redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	m.SetError("server down")

	_, err := c.Get(ctx, "key")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, c.Set(ctx, "key", []byte("x")))
	assert.Error(t, c.Del(ctx, "key"))
	_, err = c.Keys(ctx, "*")
	assert.Error(t, err)
	_, err = c.LockScript(ctx)
	assert.Error(t, err)
}

func TestNewRedisFromURL(t *testing.T) {
	m := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisFromURL(ctx, zaptest.NewLogger(t), "redis://"+m.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = NewRedisFromURL(ctx, zaptest.NewLogger(t), "http://nope")
	assert.Error(t, err)
}

func TestBadger(t *testing.T) {
	c, err := NewBadger(zaptest.NewLogger(t), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	testClientContract(t, c, time.Sleep)
}

func TestBadger_Directory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := NewBadger(zaptest.NewLogger(t), dir)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "snapshot:latest_version", []byte("3")))
	require.NoError(t, c.Close())

	c, err = NewBadger(zaptest.NewLogger(t), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	value, err := c.Get(ctx, "snapshot:latest_version")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), value)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLite(ctx, zaptest.NewLogger(t), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	testClientContract(t, c, time.Sleep)
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, int64(1), ttlSeconds(0))
	assert.Equal(t, int64(1), ttlSeconds(200*time.Millisecond))
	assert.Equal(t, int64(5), ttlSeconds(5*time.Second))
	assert.Equal(t, int64(6), ttlSeconds(5*time.Second+time.Millisecond))
}
