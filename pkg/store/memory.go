package store

import (
	"context"
	"sync"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/pkg/errors"
)

// MemoryStorage keeps snapshots in a map. It never supports patches and is
// meant for tests and single process setups.
type MemoryStorage struct {
	mu        sync.RWMutex
	latest    string
	snapshots map[int64]*snapshot.Snapshot
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		snapshots: map[int64]*snapshot.Snapshot{},
	}
}

func (s *MemoryStorage) SetLatestVersion(_ context.Context, version int64) error {
	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetLatestVersion, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snapshot.FormatVersion(version)
	return nil
}

// GetLatestVersion validates the stored pointer on every call.
func (s *MemoryStorage) GetLatestVersion(_ context.Context) (int64, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == "" {
		return 0, newStorageError(OpGetLatestVersion, notFound("latest_version"))
	}
	version, err := snapshot.ParseVersion(latest)
	if err != nil {
		return 0, newStorageError(OpGetLatestVersion, err)
	}
	return version, nil
}

func (s *MemoryStorage) SetSnapshotByVersion(_ context.Context, version int64, snap *snapshot.Snapshot) error {
	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetSnapshotByVersion, err)
	}
	if snap == nil {
		return newStorageError(OpSetSnapshotByVersion, errors.New("snapshot is nil"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[version] = snapshot.New(version, snap.Payload)
	return nil
}

// GetSnapshotByVersion returns a copy of the stored record; the payload
// itself is shared with the caller that stored it.
func (s *MemoryStorage) GetSnapshotByVersion(_ context.Context, version int64) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[version]
	if !ok {
		return nil, newStorageError(OpGetSnapshotByVersion, notFound(snapshot.FormatVersion(version)))
	}
	return snapshot.New(snap.Version, snap.Payload), nil
}

func (s *MemoryStorage) SetPatchByVersion(context.Context, int64, *snapshot.Patch) error {
	return newStorageError(OpSetPatchByVersion, errors.Wrap(ErrUnsupported, "memory storage has no patches"))
}

func (s *MemoryStorage) GetPatchByVersion(context.Context, int64) (*snapshot.Patch, error) {
	return nil, newStorageError(OpGetPatchByVersion, errors.Wrap(ErrUnsupported, "memory storage has no patches"))
}

func (s *MemoryStorage) GetAllVersions(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := make([]int64, 0, len(s.snapshots))
	for version := range s.snapshots {
		versions = append(versions, version)
	}
	return sortUnique(versions), nil
}

func (s *MemoryStorage) RemoveSnapshotsAndPatchesByVersions(_ context.Context, versions []int64) error {
	if len(versions) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, version := range versions {
		delete(s.snapshots, version)
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
