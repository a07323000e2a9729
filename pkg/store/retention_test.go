package store

import (
	"context"
	"testing"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMemoryVersions(t *testing.T, versions ...int64) *MemoryStorage {
	t.Helper()
	s := NewMemoryStorage()
	for _, version := range versions {
		require.NoError(t, s.SetSnapshotByVersion(context.Background(), version, snapshot.New(version, "x")))
	}
	return s
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name      string
		versions  []int64
		keep      int
		latest    int64
		removed   []int64
		remaining []int64
	}{
		{
			name:      "keeps newest",
			versions:  []int64{1, 2, 3, 4, 5},
			keep:      2,
			latest:    5,
			removed:   []int64{1, 2, 3},
			remaining: []int64{4, 5},
		},
		{
			name:      "never removes latest",
			versions:  []int64{1, 2, 3},
			keep:      0,
			latest:    3,
			removed:   []int64{1, 2},
			remaining: []int64{3},
		},
		{
			name:      "keeps versions newer than latest",
			versions:  []int64{1, 2, 3, 4},
			keep:      1,
			latest:    2,
			removed:   []int64{1},
			remaining: []int64{2, 3, 4},
		},
		{
			name:      "without latest",
			versions:  []int64{1, 2, 3},
			keep:      2,
			latest:    NoLatestVersion,
			removed:   []int64{1},
			remaining: []int64{2, 3},
		},
		{
			name:      "nothing to remove",
			versions:  []int64{1, 2},
			keep:      5,
			latest:    2,
			remaining: []int64{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := testMemoryVersions(t, tt.versions...)

			removed, err := Prune(ctx, s, tt.keep, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)

			remaining, err := s.GetAllVersions(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.remaining, remaining)
		})
	}
}

func TestPrune_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Prune(ctx, NewMemoryStorage(), -1, 1)
	requireStorageError(t, err, nil)

	s, f := testKVStorage(t)
	f.data["snapshot:1"] = []byte("x")
	f.data["snapshot:2"] = []byte("x")
	f.err = errors.New("timeout")
	_, err = Prune(ctx, s, 1, 2)
	requireStorageError(t, err, f.err)
}

func TestPrune_SingleBatch(t *testing.T) {
	ctx := context.Background()
	s, f := testKVStorage(t)
	for _, key := range []string{"snapshot:1", "snapshot:2", "snapshot:3", "snapshot:latest_version"} {
		f.data[key] = []byte("x")
	}

	removed, err := Prune(ctx, s, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, removed)
	assert.Len(t, f.delCalls, 1)
}
