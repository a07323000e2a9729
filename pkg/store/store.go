// Package store persists versioned snapshots and their patches.
//
// Producers write the snapshot body first and advance the latest version
// pointer afterwards; the two calls are not atomic. Consumers read the pointer
// and then the body. Key-value backends guard body reads with a throttling
// lock that admits one reader per TTL window.
package store

import (
	"context"
	"time"

	"github.com/foomo/snapshotstore/pkg/metrics"
	"github.com/foomo/snapshotstore/pkg/snapshot"
)

// Storage is the contract every backend implements. All returned errors are
// of type *StorageError.
type Storage interface {
	SetLatestVersion(ctx context.Context, version int64) error
	GetLatestVersion(ctx context.Context) (int64, error)
	SetSnapshotByVersion(ctx context.Context, version int64, s *snapshot.Snapshot) error
	GetSnapshotByVersion(ctx context.Context, version int64) (*snapshot.Snapshot, error)
	SetPatchByVersion(ctx context.Context, version int64, p *snapshot.Patch) error
	GetPatchByVersion(ctx context.Context, version int64) (*snapshot.Patch, error)
}

// Collector is implemented by backends able to enumerate and remove versions.
type Collector interface {
	// GetAllVersions returns the stored snapshot versions sorted ascending.
	GetAllVersions(ctx context.Context) ([]int64, error)
	// RemoveSnapshotsAndPatchesByVersions deletes snapshots and patches of
	// the given versions in one batch.
	RemoveSnapshotsAndPatchesByVersions(ctx context.Context, versions []int64) error
}

const (
	OpSetLatestVersion     = "set_latest_version"
	OpGetLatestVersion     = "get_latest_version"
	OpSetSnapshotByVersion = "set_snapshot_by_version"
	OpGetSnapshotByVersion = "get_snapshot_by_version"
	OpSetPatchByVersion    = "set_patch_by_version"
	OpGetPatchByVersion    = "get_patch_by_version"
	OpGetAllVersions       = "get_all_versions"
	OpRemoveVersions       = "remove_snapshots_and_patches_by_versions"
	OpOpen                 = "open"
)

// observe records the outcome of a storage operation. Use with defer and a
// named error result.
func observe(backend, op string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	metrics.StorageOperationCounter.WithLabelValues(backend, op, status).Inc()
	metrics.StorageOperationDuration.WithLabelValues(backend, op, status).Observe(time.Since(start).Seconds())
}
