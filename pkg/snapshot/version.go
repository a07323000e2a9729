package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidVersion is returned for anything that is not a non-negative integer.
var ErrInvalidVersion = errors.New("invalid version")

// ParseVersion validates a version read from storage or supplied by a caller.
// Integers and numeric strings are accepted; nil, empty, non-numeric and
// negative values are rejected.
func ParseVersion(v any) (int64, error) {
	var version int64
	switch t := v.(type) {
	case int:
		version = int64(t)
	case int8:
		version = int64(t)
	case int16:
		version = int64(t)
	case int32:
		version = int64(t)
	case int64:
		version = t
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidVersion, "%d overflows", t)
		}
		version = int64(t)
	case uint8:
		version = int64(t)
	case uint16:
		version = int64(t)
	case uint32:
		version = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidVersion, "%d overflows", t)
		}
		version = int64(t)
	case float64:
		// json decoding yields float64 for every number
		if t != math.Trunc(t) || t >= math.MaxInt64 || t < math.MinInt64 {
			return 0, errors.Wrapf(ErrInvalidVersion, "%v is not an integer", t)
		}
		version = int64(t)
	case string:
		return parseVersionString(t)
	case []byte:
		return parseVersionString(string(t))
	case nil:
		return 0, errors.Wrap(ErrInvalidVersion, "missing")
	default:
		return 0, errors.Wrapf(ErrInvalidVersion, "unsupported type %T", v)
	}
	if version < 0 {
		return 0, errors.Wrapf(ErrInvalidVersion, "%d is negative", version)
	}
	return version, nil
}

// ValidateVersion rejects negative versions.
func ValidateVersion(version int64) error {
	if version < 0 {
		return errors.Wrapf(ErrInvalidVersion, "%d is negative", version)
	}
	return nil
}

// FormatVersion renders a version the way it is embedded into storage keys.
func FormatVersion(version int64) string {
	return strconv.FormatInt(version, 10)
}

func parseVersionString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalidVersion, "empty")
	}
	version, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidVersion, fmt.Sprintf("%q is not an integer", s))
	}
	if version < 0 {
		return 0, errors.Wrapf(ErrInvalidVersion, "%d is negative", version)
	}
	return version, nil
}
