package codec

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type msgPack struct{}

// MsgPack encodes maps, lists and scalars with a compact MessagePack encoding.
// Decoded integers are always int64 (or uint64 beyond the int64 range) so that
// values survive a round trip regardless of their encoded width.
func MsgPack() Codec {
	return msgPack{}
}

func (msgPack) Name() string {
	return "msgpack"
}

func (c msgPack) Pack(payload any) (any, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(payload); err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	return buf.Bytes(), nil
}

func (c msgPack) Unpack(packed any) (any, error) {
	data, err := asBytes(packed)
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	if r.Len() > 0 {
		return nil, newError(c.Name(), "unpack", errors.Errorf("%d trailing bytes", r.Len()))
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return t
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	default:
		return v
	}
}

func asBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	case nil:
		return nil, errors.New("nil input")
	default:
		return nil, fmt.Errorf("unsupported input type %T", v)
	}
}
