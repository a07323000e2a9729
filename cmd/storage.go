package cmd

import (
	"context"
	"strings"

	"github.com/foomo/snapshotstore/pkg/client"
	"github.com/foomo/snapshotstore/pkg/codec"
	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/foomo/snapshotstore/pkg/store/kv"
	"github.com/foomo/snapshotstore/pkg/store/objects"
	"github.com/foomo/snapshotstore/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const storageTypesHelp = "memory, redis, compat-redis, legacy-redis, badger, sqlite, blob, filesystem, remote"

// backend is a closable storage
type backend interface {
	store.Storage
	Close() error
}

// newStorage creates a storage backend based on the configuration
func newStorage(ctx context.Context, l *zap.Logger, v *viper.Viper) (backend, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)

	// Warn about ignored blob config
	if storageType != "blob" && blobBucket != "" {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
		)
	}

	l.Info("creating storage", zap.String("type", storageType))

	switch storageType {
	case "memory":
		return store.NewMemoryStorage(), nil
	case "redis", "compat-redis", "legacy-redis":
		client, err := kv.NewRedisFromURL(ctx, l, storageRedisURLFlag(v))
		if err != nil {
			return nil, err
		}
		return newKVStorage(l, v, client, storageType)
	case "badger":
		client, err := kv.NewBadger(l, storageBadgerDirFlag(v))
		if err != nil {
			return nil, err
		}
		return newKVStorage(l, v, client, storageType)
	case "sqlite":
		client, err := kv.NewSQLite(ctx, l, storageSQLiteDSNFlag(v))
		if err != nil {
			return nil, err
		}
		return newKVStorage(l, v, client, storageType)
	case "blob":
		if blobBucket == "" {
			return nil, errors.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: %s)", strings.Join(objects.SupportedSchemes, ", "))
		}
		opts, err := objectOptions(v)
		if err != nil {
			return nil, err
		}
		l.Info("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", storageBlobPrefixFlag(v)),
			zap.String("provider", detectBlobProvider(blobBucket)),
		)
		s, err := store.OpenObjectStorage(ctx, l, blobBucket, storageBlobPrefixFlag(v), opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "filesystem":
		opts, err := objectOptions(v)
		if err != nil {
			return nil, err
		}
		client, err := objects.NewFilesystem(storageFilesystemDirFlag(v))
		if err != nil {
			return nil, err
		}
		l.Info("using filesystem storage", zap.String("dir", storageFilesystemDirFlag(v)))
		return store.NewObjectStorage(l, client, opts...), nil
	case "remote":
		endpoint := storageRemoteURLFlag(v)
		if !utils.IsValidURL(endpoint) {
			return nil, errors.Errorf("invalid remote url %q (expected http(s)://host/path)", endpoint)
		}
		l.Info("using remote storage", zap.String("url", endpoint))
		return client.New(endpoint), nil
	default:
		return nil, errors.Errorf("unknown storage type: %s (supported: %s)", storageType, storageTypesHelp)
	}
}

func newKVStorage(l *zap.Logger, v *viper.Viper, client kv.Client, storageType string) (backend, error) {
	lockOpts := []store.LockOption{
		store.LockWithIgnoreOnce(lockIgnoreOnceFlag(v)),
		store.LockWithIgnoreAlways(lockIgnoreAlwaysFlag(v)),
	}
	if key := lockKeyFlag(v); key != "" {
		lockOpts = append(lockOpts, store.LockWithKey(key))
	}
	if ttl := lockTTLFlag(v); ttl > 0 {
		lockOpts = append(lockOpts, store.LockWithTTL(ttl))
	}
	opts := []store.KVOption{store.KVWithLockOptions(lockOpts...)}
	if name := storageCodecFlag(v); name != "" {
		c, err := codec.Parse(name)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		opts = append(opts, store.KVWithCodec(c))
	}

	switch storageType {
	case "compat-redis":
		return store.NewCompatKVStorage(l, client, opts...), nil
	case "legacy-redis":
		return store.NewLegacyKVStorage(l, client, opts...), nil
	default:
		opts = append(opts, store.KVWithLayout(store.VersionedLayout(storageNamespaceFlag(v))))
		return store.NewKVStorage(l, client, opts...), nil
	}
}

func objectOptions(v *viper.Viper) ([]store.ObjectOption, error) {
	name := storageCodecFlag(v)
	if name == "" {
		return nil, nil
	}
	c, err := codec.Parse(name)
	if err != nil {
		return nil, err
	}
	return []store.ObjectOption{store.ObjectWithCodec(c)}, nil
}

// detectBlobProvider returns a human-readable provider name from the URL scheme
func detectBlobProvider(bucketURL string) string {
	switch {
	case strings.HasPrefix(bucketURL, "gs://"):
		return "Google Cloud Storage"
	case strings.HasPrefix(bucketURL, "s3://"):
		return "AWS S3"
	case strings.HasPrefix(bucketURL, "azblob://"):
		return "Azure Blob Storage"
	case strings.HasPrefix(bucketURL, "file://"):
		return "Local Filesystem"
	case strings.HasPrefix(bucketURL, "mem://"):
		return "Memory"
	default:
		return "unknown"
	}
}
