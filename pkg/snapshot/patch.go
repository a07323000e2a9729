package snapshot

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

const (
	patchKeyNewVersion = "new_snapshot_version"
	patchKeyAdded      = "added"
	patchKeyRemoved    = "removed"
)

// ErrInvalidPatch is returned for patch payloads that cannot be interpreted.
var ErrInvalidPatch = errors.New("invalid patch")

// Patch describes how to turn the snapshot at BaseVersion into the one at NewVersion.
type Patch struct {
	BaseVersion int64          `json:"base_snapshot_version"`
	NewVersion  int64          `json:"new_snapshot_version"`
	Added       map[string]any `json:"added"`
	Removed     []string       `json:"removed"`
}

// NewPatch validates the version order and returns a patch.
func NewPatch(baseVersion, newVersion int64, added map[string]any, removed []string) (*Patch, error) {
	if err := ValidateVersion(baseVersion); err != nil {
		return nil, err
	}
	if newVersion <= baseVersion {
		return nil, errors.Wrapf(ErrInvalidPatch, "new version %d must be greater than base version %d", newVersion, baseVersion)
	}
	if added == nil {
		added = map[string]any{}
	}
	if removed == nil {
		removed = []string{}
	}
	return &Patch{
		BaseVersion: baseVersion,
		NewVersion:  newVersion,
		Added:       added,
		Removed:     removed,
	}, nil
}

// Payload returns the mapping persisted by storage backends. The base
// version is implied by the key the payload is stored under.
func (p *Patch) Payload() map[string]any {
	removed := make([]any, len(p.Removed))
	for i, key := range p.Removed {
		removed[i] = key
	}
	return map[string]any{
		patchKeyNewVersion: p.NewVersion,
		patchKeyAdded:      p.Added,
		patchKeyRemoved:    removed,
	}
}

// PatchFromPayload rebuilds a patch read back under baseVersion.
func PatchFromPayload(baseVersion int64, payload any) (*Patch, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidPatch, "payload is %T, not a mapping", payload)
	}
	newVersion, err := ParseVersion(m[patchKeyNewVersion])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPatch, err.Error())
	}
	var added map[string]any
	switch t := m[patchKeyAdded].(type) {
	case map[string]any:
		added = t
	case nil:
	default:
		return nil, errors.Wrapf(ErrInvalidPatch, "added is %T, not a mapping", t)
	}
	var removed []string
	switch t := m[patchKeyRemoved].(type) {
	case []any:
		removed = make([]string, 0, len(t))
		for _, item := range t {
			key, ok := item.(string)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidPatch, "removed key %v is %T, not a string", item, item)
			}
			removed = append(removed, key)
		}
	case []string:
		removed = t
	case nil:
	default:
		return nil, errors.Wrapf(ErrInvalidPatch, "removed is %T, not a list", t)
	}
	return NewPatch(baseVersion, newVersion, added, removed)
}

// MakePatch computes the structural difference between two snapshots whose
// payloads are mappings. Added holds keys that are new or changed in next,
// Removed holds keys of base missing from next.
func MakePatch(base, next *Snapshot) (*Patch, error) {
	baseMap, ok := base.Payload.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidPatch, "base payload is %T, not a mapping", base.Payload)
	}
	nextMap, ok := next.Payload.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidPatch, "new payload is %T, not a mapping", next.Payload)
	}

	added := map[string]any{}
	for key, value := range nextMap {
		if old, exists := baseMap[key]; !exists || !reflect.DeepEqual(old, value) {
			added[key] = value
		}
	}
	removed := []string{}
	for key := range baseMap {
		if _, exists := nextMap[key]; !exists {
			removed = append(removed, key)
		}
	}
	sort.Strings(removed)

	return NewPatch(base.Version, next.Version, added, removed)
}

// Apply returns a new snapshot at NewVersion built from base.
func (p *Patch) Apply(base *Snapshot) (*Snapshot, error) {
	if base.Version != p.BaseVersion {
		return nil, errors.Wrap(ErrInvalidPatch, fmt.Sprintf("patch expects base version %d, got %d", p.BaseVersion, base.Version))
	}
	baseMap, ok := base.Payload.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidPatch, "base payload is %T, not a mapping", base.Payload)
	}
	payload := make(map[string]any, len(baseMap)+len(p.Added))
	for key, value := range baseMap {
		payload[key] = value
	}
	for _, key := range p.Removed {
		delete(payload, key)
	}
	for key, value := range p.Added {
		payload[key] = value
	}
	return New(p.NewVersion, payload), nil
}
