package store

import (
	"strings"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/pkg/errors"
)

// KeyLayout maps versions onto key-value keys.
type KeyLayout interface {
	// Name is used as metrics label.
	Name() string
	LatestVersionKey() string
	SnapshotKey(version int64) string
	// PatchKey fails with ErrUnsupported for layouts without patches.
	PatchKey(version int64) (string, error)
	// SnapshotPattern is the glob matching every snapshot key. Fails with
	// ErrUnsupported for layouts without enumeration.
	SnapshotPattern() (string, error)
	// ParseSnapshotKey extracts the version of a key matched by SnapshotPattern.
	ParseSnapshotKey(key string) (int64, bool)
}

// ------------------------------------------------------------------------------------------------
// ~ Versioned
// ------------------------------------------------------------------------------------------------

type versionedLayout struct {
	prefix string
}

// VersionedLayout stores each version under its own key:
//
//	snapshot:latest_version
//	snapshot:<version>
//	snapshot:<version>:patch
//
// A non-empty namespace is prepended as "<namespace>:".
func VersionedLayout(namespace string) KeyLayout {
	prefix := "snapshot:"
	if namespace != "" {
		prefix = namespace + ":" + prefix
	}
	return versionedLayout{prefix: prefix}
}

func (v versionedLayout) Name() string {
	return "versioned"
}

func (v versionedLayout) LatestVersionKey() string {
	return v.prefix + "latest_version"
}

func (v versionedLayout) SnapshotKey(version int64) string {
	return v.prefix + snapshot.FormatVersion(version)
}

func (v versionedLayout) PatchKey(version int64) (string, error) {
	return v.SnapshotKey(version) + ":patch", nil
}

func (v versionedLayout) SnapshotPattern() (string, error) {
	return v.prefix + "*", nil
}

func (v versionedLayout) ParseSnapshotKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, v.prefix) {
		return 0, false
	}
	version, err := snapshot.ParseVersion(strings.TrimPrefix(key, v.prefix))
	if err != nil {
		return 0, false
	}
	return version, true
}

// ------------------------------------------------------------------------------------------------
// ~ Legacy
// ------------------------------------------------------------------------------------------------

type legacyLayout struct{}

// LegacyLayout is the pre-versioning layout: one pointer key and one snapshot
// key shared by all versions.
func LegacyLayout() KeyLayout {
	return legacyLayout{}
}

func (legacyLayout) Name() string {
	return "legacy"
}

func (legacyLayout) LatestVersionKey() string {
	return "last_export_date"
}

func (legacyLayout) SnapshotKey(int64) string {
	return "core_data"
}

func (legacyLayout) PatchKey(int64) (string, error) {
	return "", errors.Wrap(ErrUnsupported, "legacy layout has no patches")
}

func (legacyLayout) SnapshotPattern() (string, error) {
	return "", errors.Wrap(ErrUnsupported, "legacy layout has no versions to enumerate")
}

func (legacyLayout) ParseSnapshotKey(string) (int64, bool) {
	return 0, false
}
