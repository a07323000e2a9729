package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	valid := []struct {
		in   any
		want int64
	}{
		{in: 1, want: 1},
		{in: int64(2), want: 2},
		{in: uint8(7), want: 7},
		{in: "3", want: 3},
		{in: []byte("42"), want: 42},
		{in: float64(12), want: 12},
		{in: 0, want: 0},
	}
	for _, tt := range valid {
		got, err := ParseVersion(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	invalid := []any{nil, "", "test", "1.5", -1, "-3", 1.5, struct{}{}, uint64(1 << 63)}
	for _, in := range invalid {
		_, err := ParseVersion(in)
		assert.ErrorIs(t, err, ErrInvalidVersion, "%v", in)
	}
}

func TestValidateVersion(t *testing.T) {
	assert.NoError(t, ValidateVersion(0))
	assert.ErrorIs(t, ValidateVersion(-1), ErrInvalidVersion)
	assert.Equal(t, "15", FormatVersion(15))
}

func TestNewPatch(t *testing.T) {
	p, err := NewPatch(1, 2, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Added)
	assert.Empty(t, p.Removed)

	_, err = NewPatch(2, 2, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = NewPatch(3, 1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = NewPatch(-1, 1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestPatchPayload(t *testing.T) {
	p, err := NewPatch(1, 5, map[string]any{"a": int64(1)}, []string{"b"})
	require.NoError(t, err)

	payload := p.Payload()
	assert.Equal(t, int64(5), payload["new_snapshot_version"])

	restored, err := PatchFromPayload(1, payload)
	require.NoError(t, err)
	assert.Equal(t, p, restored)
}

func TestPatchFromPayload_Invalid(t *testing.T) {
	tests := map[string]any{
		"not a map":       "test",
		"missing version": map[string]any{"added": map[string]any{}},
		"bad version":     map[string]any{"new_snapshot_version": "x"},
		"not newer":       map[string]any{"new_snapshot_version": int64(1)},
		"bad added":       map[string]any{"new_snapshot_version": int64(2), "added": "x"},
		"bad removed":     map[string]any{"new_snapshot_version": int64(2), "removed": "x"},
		"bad removed key": map[string]any{"new_snapshot_version": int64(2), "removed": []any{1}},
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := PatchFromPayload(1, payload)
			assert.ErrorIs(t, err, ErrInvalidPatch)
		})
	}
}

func TestMakePatch(t *testing.T) {
	base := New(1, map[string]any{"a": 1, "b": 2, "c": 3})
	next := New(2, map[string]any{"a": 1, "b": 20, "d": 4})

	p, err := MakePatch(base, next)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.BaseVersion)
	assert.Equal(t, int64(2), p.NewVersion)
	assert.Equal(t, map[string]any{"b": 20, "d": 4}, p.Added)
	assert.Equal(t, []string{"c"}, p.Removed)

	applied, err := p.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, next, applied)
}

func TestMakePatch_Invalid(t *testing.T) {
	_, err := MakePatch(New(1, "test"), New(2, map[string]any{}))
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = MakePatch(New(1, map[string]any{}), New(2, []any{}))
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = MakePatch(New(2, map[string]any{}), New(2, map[string]any{}))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestPatchApply_WrongBase(t *testing.T) {
	p, err := NewPatch(1, 2, nil, nil)
	require.NoError(t, err)

	_, err = p.Apply(New(3, map[string]any{}))
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = p.Apply(New(1, "test"))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}
