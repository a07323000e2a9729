package store

import (
	"context"
	"strings"
	"time"

	"github.com/foomo/snapshotstore/pkg/codec"
	"github.com/foomo/snapshotstore/pkg/metrics"
	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store/objects"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const objectKeyPrefix = "snapshots/snapshot_"

type (
	// ObjectStorage keeps one object per version. It has no lock, no latest
	// version pointer and no patches.
	ObjectStorage struct {
		l                 *zap.Logger
		client            objects.Client
		codec             codec.Codec
		deleteConcurrency int
	}
	ObjectOption func(*ObjectStorage)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func ObjectWithCodec(v codec.Codec) ObjectOption {
	return func(o *ObjectStorage) {
		o.codec = v
	}
}

func ObjectWithDeleteConcurrency(v int) ObjectOption {
	return func(o *ObjectStorage) {
		o.deleteConcurrency = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewObjectStorage(l *zap.Logger, client objects.Client, opts ...ObjectOption) *ObjectStorage {
	inst := &ObjectStorage{
		client:            client,
		codec:             codec.Default(),
		deleteConcurrency: 8,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.l = l.Named("objects").With(zap.String("codec", inst.codec.Name()))

	return inst
}

// OpenObjectStorage binds a bucket, e.g. "s3://snapshots?region=eu-central-1".
func OpenObjectStorage(ctx context.Context, l *zap.Logger, bucketURL, prefix string, opts ...ObjectOption) (*ObjectStorage, error) {
	client, err := objects.OpenBlob(ctx, bucketURL, prefix)
	if err != nil {
		return nil, newStorageError(OpOpen, err)
	}
	return NewObjectStorage(l, client, opts...), nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *ObjectStorage) SetLatestVersion(context.Context, int64) error {
	return newStorageError(OpSetLatestVersion, errors.Wrap(ErrUnsupported, "object storage has no latest version"))
}

func (s *ObjectStorage) GetLatestVersion(context.Context) (int64, error) {
	return 0, newStorageError(OpGetLatestVersion, errors.Wrap(ErrUnsupported, "object storage has no latest version"))
}

func (s *ObjectStorage) SetSnapshotByVersion(ctx context.Context, version int64, snap *snapshot.Snapshot) (err error) {
	defer observe("objects", OpSetSnapshotByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetSnapshotByVersion, err)
	}
	if snap == nil {
		return newStorageError(OpSetSnapshotByVersion, errors.New("snapshot is nil"))
	}
	data, err := encode(s.codec, snap.Payload)
	if err != nil {
		return newStorageError(OpSetSnapshotByVersion, err)
	}
	key := objectKey(version)
	if err := s.client.Write(ctx, key, data); err != nil {
		return newStorageError(OpSetSnapshotByVersion, err)
	}
	metrics.PayloadBytes.WithLabelValues("objects", OpSetSnapshotByVersion).Observe(float64(len(data)))
	s.l.Debug("snapshot written", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (s *ObjectStorage) GetSnapshotByVersion(ctx context.Context, version int64) (snap *snapshot.Snapshot, err error) {
	defer observe("objects", OpGetSnapshotByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return nil, newStorageError(OpGetSnapshotByVersion, err)
	}
	key := objectKey(version)
	data, err := s.client.Read(ctx, key)
	if err != nil {
		return nil, newStorageError(OpGetSnapshotByVersion, err)
	}
	metrics.PayloadBytes.WithLabelValues("objects", OpGetSnapshotByVersion).Observe(float64(len(data)))

	payload, err := decode(s.codec, data)
	if err != nil {
		return nil, newStorageError(OpGetSnapshotByVersion, err)
	}
	return snapshot.New(version, payload), nil
}

func (s *ObjectStorage) SetPatchByVersion(context.Context, int64, *snapshot.Patch) error {
	return newStorageError(OpSetPatchByVersion, errors.Wrap(ErrUnsupported, "object storage has no patches"))
}

func (s *ObjectStorage) GetPatchByVersion(context.Context, int64) (*snapshot.Patch, error) {
	return nil, newStorageError(OpGetPatchByVersion, errors.Wrap(ErrUnsupported, "object storage has no patches"))
}

func (s *ObjectStorage) GetAllVersions(ctx context.Context) (versions []int64, err error) {
	defer observe("objects", OpGetAllVersions, time.Now(), &err)

	keys, err := s.client.List(ctx, objectKeyPrefix)
	if err != nil {
		return nil, newStorageError(OpGetAllVersions, err)
	}
	versions = make([]int64, 0, len(keys))
	for _, key := range keys {
		version, err := snapshot.ParseVersion(strings.TrimPrefix(key, objectKeyPrefix))
		if err != nil {
			continue
		}
		versions = append(versions, version)
	}
	return sortUnique(versions), nil
}

// RemoveSnapshotsAndPatchesByVersions deletes the objects in parallel and
// reports the first failure for the whole batch.
func (s *ObjectStorage) RemoveSnapshotsAndPatchesByVersions(ctx context.Context, versions []int64) (err error) {
	if len(versions) == 0 {
		return nil
	}
	defer observe("objects", OpRemoveVersions, time.Now(), &err)

	for _, version := range versions {
		if err := snapshot.ValidateVersion(version); err != nil {
			return newStorageError(OpRemoveVersions, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deleteConcurrency)
	for _, version := range versions {
		key := objectKey(version)
		g.Go(func() error {
			return s.client.Delete(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return newStorageError(OpRemoveVersions, err)
	}
	s.l.Debug("removed versions", zap.Int64s("versions", versions))
	return nil
}

func (s *ObjectStorage) Close() error {
	return s.client.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func objectKey(version int64) string {
	return objectKeyPrefix + snapshot.FormatVersion(version)
}
