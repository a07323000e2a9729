package store

import (
	"context"
	"testing"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.GetLatestVersion(ctx)
	requireStorageError(t, err, ErrNotFound)

	require.NoError(t, s.SetSnapshotByVersion(ctx, 1, snapshot.New(1, "test")))
	require.NoError(t, s.SetLatestVersion(ctx, 1))

	version, err := s.GetLatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	snap, err := s.GetSnapshotByVersion(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, snapshot.New(1, "test"), snap)

	_, err = s.GetSnapshotByVersion(ctx, 2)
	requireStorageError(t, err, ErrNotFound)

	requireStorageError(t, s.SetLatestVersion(ctx, -5), snapshot.ErrInvalidVersion)
}

func TestMemoryStorage_InvalidLatest(t *testing.T) {
	s := NewMemoryStorage()
	s.latest = "not a version"

	_, err := s.GetLatestVersion(context.Background())
	requireStorageError(t, err, snapshot.ErrInvalidVersion)
}

func TestMemoryStorage_Patches(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	patch, err := snapshot.NewPatch(1, 2, nil, nil)
	require.NoError(t, err)

	requireStorageError(t, s.SetPatchByVersion(ctx, 1, patch), ErrUnsupported)
	_, err = s.GetPatchByVersion(ctx, 1)
	requireStorageError(t, err, ErrUnsupported)
}

func TestMemoryStorage_Collector(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	for _, version := range []int64{5, 1, 3} {
		require.NoError(t, s.SetSnapshotByVersion(ctx, version, snapshot.New(version, version)))
	}

	versions, err := s.GetAllVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, versions)

	require.NoError(t, s.RemoveSnapshotsAndPatchesByVersions(ctx, []int64{1, 5}))
	versions, err = s.GetAllVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, versions)
}
