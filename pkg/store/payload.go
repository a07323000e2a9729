package store

import (
	"slices"

	"github.com/foomo/snapshotstore/pkg/codec"
	"github.com/pkg/errors"
)

// encode runs payload through c and requires bytes at the end of the pipeline.
func encode(c codec.Codec, payload any) ([]byte, error) {
	packed, err := c.Pack(payload)
	if err != nil {
		return nil, err
	}
	switch t := packed.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, &codec.Error{Codec: c.Name(), Op: "pack", Err: errors.Errorf("pipeline produced %T, not bytes", packed)}
	}
}

func decode(c codec.Codec, data []byte) (any, error) {
	return c.Unpack(data)
}

// sortUnique sorts versions ascending and drops duplicates in place.
func sortUnique(versions []int64) []int64 {
	slices.Sort(versions)
	return slices.Compact(versions)
}
