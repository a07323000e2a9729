package store

import (
	"context"
	"slices"

	"github.com/foomo/snapshotstore/pkg/metrics"
	"github.com/pkg/errors"
)

// NoLatestVersion is passed to Prune for backends without a latest version pointer.
const NoLatestVersion int64 = -1

// Prune keeps the keep newest versions and removes the rest in one batch.
// The latest version and versions newer than it, which may be in the middle
// of being published, are never removed. It returns the removed versions.
func Prune(ctx context.Context, c Collector, keep int, latest int64) ([]int64, error) {
	if keep < 0 {
		return nil, &StorageError{Op: OpRemoveVersions, Err: errors.Errorf("invalid number of versions to keep: %d", keep)}
	}

	versions, err := c.GetAllVersions(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []int64
	for _, version := range versions {
		if latest != NoLatestVersion && version >= latest {
			continue
		}
		candidates = append(candidates, version)
	}

	kept := 0
	if latest != NoLatestVersion {
		// the latest version counts towards keep
		kept = 1
	}
	var remove []int64
	for i := len(candidates) - 1; i >= 0; i-- {
		if kept < keep {
			kept++
			continue
		}
		remove = append(remove, candidates[i])
	}
	if len(remove) == 0 {
		return nil, nil
	}

	// ascending like GetAllVersions
	slices.Reverse(remove)
	if err := c.RemoveSnapshotsAndPatchesByVersions(ctx, remove); err != nil {
		return nil, err
	}
	metrics.PrunedVersionsCounter.WithLabelValues().Add(float64(len(remove)))
	return remove, nil
}
