package objects

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// drivers selectable through the bucket url
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// SupportedSchemes lists the bucket url schemes understood by OpenBlob.
var SupportedSchemes = []string{"s3://", "gs://", "azblob://", "file://", "mem://"}

// Blob implements Client on a gocloud.dev bucket (S3, GCS, Azure, local files, memory).
type Blob struct {
	bucket *blob.Bucket
	prefix string
}

// OpenBlob opens the bucket behind bucketURL, e.g. "s3://snapshots?region=eu-central-1".
// prefix is an optional path prefix for all keys.
func OpenBlob(ctx context.Context, bucketURL, prefix string) (*Blob, error) {
	if !IsSupportedScheme(bucketURL) {
		return nil, errors.Errorf("unsupported bucket url %q; supported schemes: %s", bucketURL, strings.Join(SupportedSchemes, ", "))
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bucket")
	}
	return NewBlob(bucket, prefix), nil
}

// NewBlob wraps an already opened bucket, e.g. a memblob in tests.
func NewBlob(bucket *blob.Bucket, prefix string) *Blob {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Blob{
		bucket: bucket,
		prefix: prefix,
	}
}

// IsSupportedScheme reports whether bucketURL uses one of SupportedSchemes.
func IsSupportedScheme(bucketURL string) bool {
	for _, scheme := range SupportedSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}

func (b *Blob) fullKey(key string) string {
	return b.prefix + key
}

func (b *Blob) Write(ctx context.Context, key string, data []byte) error {
	return b.bucket.WriteAll(ctx, b.fullKey(key), data, nil)
}

func (b *Blob) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, b.fullKey(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, os.ErrNotExist
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Blob) List(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix: b.fullKey(prefix),
	})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		if obj.IsDir || !strings.HasPrefix(obj.Key, b.prefix) {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, b.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Blob) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, b.fullKey(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (b *Blob) Close() error {
	return b.bucket.Close()
}
