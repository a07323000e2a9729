package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestKVStorage(t *testing.T) backend {
	t.Helper()
	v := viper.New()
	v.Set("storage.type", "badger")
	v.Set("lock.ignore_always", true)
	s, err := newStorage(context.Background(), zaptest.NewLogger(t), v)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	l := zaptest.NewLogger(t)
	s := newTestKVStorage(t)

	require.NoError(t, publish(ctx, l, s, snapshot.New(1, map[string]any{"a": "1", "b": "2"}), true, true))
	require.NoError(t, publish(ctx, l, s, snapshot.New(2, map[string]any{"a": "1", "c": "3"}), true, true))

	latest, err := s.GetLatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)

	patch, err := s.GetPatchByVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), patch.NewVersion)
	assert.Equal(t, map[string]any{"c": "3"}, patch.Added)
	assert.Equal(t, []string{"b"}, patch.Removed)

	_, err = s.GetPatchByVersion(ctx, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPublish_SkipLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestKVStorage(t)

	require.NoError(t, publish(ctx, zaptest.NewLogger(t), s, snapshot.New(1, "payload"), false, false))

	_, err := s.GetLatestVersion(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	snap, err := s.GetSnapshotByVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "payload", snap.Payload)
}

func TestPublish_NotNewer(t *testing.T) {
	ctx := context.Background()
	l := zaptest.NewLogger(t)
	s := newTestKVStorage(t)

	require.NoError(t, publish(ctx, l, s, snapshot.New(5, map[string]any{}), true, true))
	assert.Error(t, publish(ctx, l, s, snapshot.New(3, map[string]any{}), true, true))

	latest, err := s.GetLatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()

	_, err := get(ctx, s, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, publish(ctx, zaptest.NewLogger(t), s, snapshot.New(1, "one"), false, true))
	require.NoError(t, publish(ctx, zaptest.NewLogger(t), s, snapshot.New(2, "two"), false, true))

	snap, err := get(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", snap.Payload)

	snap, err = get(ctx, s, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, "one", snap.Payload)

	_, err = get(ctx, s, []string{"x"})
	assert.ErrorIs(t, err, snapshot.ErrInvalidVersion)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	l := zaptest.NewLogger(t)
	s := store.NewMemoryStorage()

	for version := int64(1); version <= 4; version++ {
		require.NoError(t, publish(ctx, l, s, snapshot.New(version, version), false, version != 4))
	}

	require.NoError(t, prune(ctx, l, s, 1))

	versions, err := s.GetAllVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, versions)
}

func TestPublishCommand(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) string {
		t.Helper()
		out := &bytes.Buffer{}
		cmd := NewRootCommand()
		cmd.SetArgs(append(args, "--storage-type", "filesystem", "--storage-filesystem-dir", dir))
		cmd.SetIn(strings.NewReader(`{"a":1}`))
		cmd.SetOut(out)
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	run("publish", "7", "--skip-latest")
	assert.Equal(t, "7\n", run("versions"))
	assert.JSONEq(t, `{"a":1}`, run("get", "7"))
}
