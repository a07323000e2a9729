package store

import (
	"context"
	"time"

	"github.com/foomo/snapshotstore/pkg/codec"
	"github.com/foomo/snapshotstore/pkg/metrics"
	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store/kv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// KVStorage implements Storage and Collector on a key-value store. Key
	// naming and payload encoding are independent: any KeyLayout combines
	// with any codec.
	KVStorage struct {
		l        *zap.Logger
		client   kv.Client
		layout   KeyLayout
		codec    codec.Codec
		lock     *Lock
		lockOpts []LockOption
		backend  string
	}
	KVOption func(*KVStorage)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func KVWithCodec(v codec.Codec) KVOption {
	return func(o *KVStorage) {
		o.codec = v
	}
}

func KVWithLayout(v KeyLayout) KVOption {
	return func(o *KVStorage) {
		o.layout = v
	}
}

func KVWithLockOptions(v ...LockOption) KVOption {
	return func(o *KVStorage) {
		o.lockOpts = append(o.lockOpts, v...)
	}
}

// KVWithBackendName overrides the metrics label.
func KVWithBackendName(v string) KVOption {
	return func(o *KVStorage) {
		o.backend = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewKVStorage uses the versioned layout and the default codec.
func NewKVStorage(l *zap.Logger, client kv.Client, opts ...KVOption) *KVStorage {
	return newKVStorage(l, client, "kv", append([]KVOption{
		KVWithLayout(VersionedLayout("")),
		KVWithCodec(codec.Default()),
	}, opts...)...)
}

// NewCompatKVStorage reads and writes the legacy layout with the msgpack+zlib
// codec.
func NewCompatKVStorage(l *zap.Logger, client kv.Client, opts ...KVOption) *KVStorage {
	return newKVStorage(l, client, "compat-kv", append([]KVOption{
		KVWithLayout(LegacyLayout()),
		KVWithCodec(codec.Compat()),
	}, opts...)...)
}

// NewLegacyKVStorage reads and writes the legacy layout with the zlib codec.
func NewLegacyKVStorage(l *zap.Logger, client kv.Client, opts ...KVOption) *KVStorage {
	return newKVStorage(l, client, "legacy-kv", append([]KVOption{
		KVWithLayout(LegacyLayout()),
		KVWithCodec(codec.Legacy()),
	}, opts...)...)
}

func newKVStorage(l *zap.Logger, client kv.Client, backend string, opts ...KVOption) *KVStorage {
	inst := &KVStorage{
		client:  client,
		backend: backend,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.l = l.Named(inst.backend).With(
		zap.String("layout", inst.layout.Name()),
		zap.String("codec", inst.codec.Name()),
	)
	inst.lock = NewLock(inst.l, client, inst.lockOpts...)

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *KVStorage) SetLatestVersion(ctx context.Context, version int64) (err error) {
	defer observe(s.backend, OpSetLatestVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetLatestVersion, err)
	}
	if err := s.client.Set(ctx, s.layout.LatestVersionKey(), []byte(snapshot.FormatVersion(version))); err != nil {
		return newStorageError(OpSetLatestVersion, err)
	}
	s.l.Debug("latest version set", zap.Int64("version", version))
	return nil
}

func (s *KVStorage) GetLatestVersion(ctx context.Context) (version int64, err error) {
	defer observe(s.backend, OpGetLatestVersion, time.Now(), &err)

	key := s.layout.LatestVersionKey()
	value, err := s.client.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, newStorageError(OpGetLatestVersion, notFound(key))
	} else if err != nil {
		return 0, newStorageError(OpGetLatestVersion, err)
	}
	version, err = snapshot.ParseVersion(value)
	if err != nil {
		return 0, newStorageError(OpGetLatestVersion, err)
	}
	return version, nil
}

func (s *KVStorage) SetSnapshotByVersion(ctx context.Context, version int64, snap *snapshot.Snapshot) (err error) {
	defer observe(s.backend, OpSetSnapshotByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetSnapshotByVersion, err)
	}
	if snap == nil {
		return newStorageError(OpSetSnapshotByVersion, errors.New("snapshot is nil"))
	}
	return s.setPayload(ctx, OpSetSnapshotByVersion, s.layout.SnapshotKey(version), snap.Payload)
}

func (s *KVStorage) GetSnapshotByVersion(ctx context.Context, version int64) (snap *snapshot.Snapshot, err error) {
	defer observe(s.backend, OpGetSnapshotByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return nil, newStorageError(OpGetSnapshotByVersion, err)
	}
	payload, err := s.getPayload(ctx, OpGetSnapshotByVersion, s.layout.SnapshotKey(version))
	if err != nil {
		return nil, err
	}
	return snapshot.New(version, payload), nil
}

func (s *KVStorage) SetPatchByVersion(ctx context.Context, version int64, patch *snapshot.Patch) (err error) {
	defer observe(s.backend, OpSetPatchByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return newStorageError(OpSetPatchByVersion, err)
	}
	key, err := s.layout.PatchKey(version)
	if err != nil {
		return newStorageError(OpSetPatchByVersion, err)
	}
	if patch == nil {
		return newStorageError(OpSetPatchByVersion, errors.New("patch is nil"))
	}
	if patch.NewVersion <= version {
		return newStorageError(OpSetPatchByVersion, errors.Wrapf(snapshot.ErrInvalidPatch,
			"new version %d is not greater than %d", patch.NewVersion, version))
	}
	return s.setPayload(ctx, OpSetPatchByVersion, key, patch.Payload())
}

func (s *KVStorage) GetPatchByVersion(ctx context.Context, version int64) (patch *snapshot.Patch, err error) {
	defer observe(s.backend, OpGetPatchByVersion, time.Now(), &err)

	if err := snapshot.ValidateVersion(version); err != nil {
		return nil, newStorageError(OpGetPatchByVersion, err)
	}
	// resolve the key before the lock so unsupported calls do not consume it
	key, err := s.layout.PatchKey(version)
	if err != nil {
		return nil, newStorageError(OpGetPatchByVersion, err)
	}
	payload, err := s.getPayload(ctx, OpGetPatchByVersion, key)
	if err != nil {
		return nil, err
	}
	patch, err = snapshot.PatchFromPayload(version, payload)
	if err != nil {
		return nil, newStorageError(OpGetPatchByVersion, err)
	}
	return patch, nil
}

// GetAllVersions lists the snapshot keys and silently skips keys which do not
// parse as a version, e.g. the latest version pointer or patches.
func (s *KVStorage) GetAllVersions(ctx context.Context) (versions []int64, err error) {
	defer observe(s.backend, OpGetAllVersions, time.Now(), &err)

	pattern, err := s.layout.SnapshotPattern()
	if err != nil {
		return nil, newStorageError(OpGetAllVersions, err)
	}
	keys, err := s.client.Keys(ctx, pattern)
	if err != nil {
		return nil, newStorageError(OpGetAllVersions, err)
	}

	versions = make([]int64, 0, len(keys))
	for _, key := range keys {
		if version, ok := s.layout.ParseSnapshotKey(key); ok {
			versions = append(versions, version)
		}
	}
	return sortUnique(versions), nil
}

// RemoveSnapshotsAndPatchesByVersions deletes all snapshot and patch keys of
// versions with a single call. An empty list does not touch the store.
func (s *KVStorage) RemoveSnapshotsAndPatchesByVersions(ctx context.Context, versions []int64) (err error) {
	if len(versions) == 0 {
		return nil
	}
	defer observe(s.backend, OpRemoveVersions, time.Now(), &err)

	keys := make([]string, 0, 2*len(versions))
	for _, version := range versions {
		if err := snapshot.ValidateVersion(version); err != nil {
			return newStorageError(OpRemoveVersions, err)
		}
		patchKey, err := s.layout.PatchKey(version)
		if err != nil {
			return newStorageError(OpRemoveVersions, err)
		}
		keys = append(keys, s.layout.SnapshotKey(version), patchKey)
	}
	if err := s.client.Del(ctx, keys...); err != nil {
		return newStorageError(OpRemoveVersions, err)
	}
	s.l.Debug("removed versions", zap.Int64s("versions", versions))
	return nil
}

func (s *KVStorage) Lock() *Lock {
	return s.lock
}

func (s *KVStorage) Close() error {
	return s.client.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *KVStorage) setPayload(ctx context.Context, op, key string, payload any) error {
	data, err := encode(s.codec, payload)
	if err != nil {
		return newStorageError(op, err)
	}
	if err := s.client.Set(ctx, key, data); err != nil {
		return newStorageError(op, err)
	}
	metrics.PayloadBytes.WithLabelValues(s.backend, op).Observe(float64(len(data)))
	s.l.Debug("payload written", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (s *KVStorage) getPayload(ctx context.Context, op, key string) (any, error) {
	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, newStorageError(op, err)
	} else if !ok {
		metrics.LockDeniedCounter.WithLabelValues(s.backend).Inc()
		s.l.Warn("read denied by lock", zap.String("key", key), zap.String("lock", s.lock.Key()))
		return nil, newStorageError(op, errors.Wrapf(ErrLocked, "%q", s.lock.Key()))
	}

	data, err := s.client.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, newStorageError(op, notFound(key))
	} else if err != nil {
		return nil, newStorageError(op, err)
	}
	metrics.PayloadBytes.WithLabelValues(s.backend, op).Observe(float64(len(data)))

	payload, err := decode(s.codec, data)
	if err != nil {
		return nil, newStorageError(op, err)
	}
	s.l.Debug("payload read", zap.String("key", key), zap.Int("bytes", len(data)))
	return payload, nil
}
