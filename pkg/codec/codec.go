package codec

import (
	"fmt"
	"strings"
)

// Codec is a reversible payload transformation. Stages exchange values of type
// any so that a structured encoder can feed a byte compressor.
type Codec interface {
	// Pack encodes payload. It returns an *Error on unsupported input.
	Pack(payload any) (any, error)
	// Unpack reverses Pack. It returns an *Error on malformed input.
	Unpack(packed any) (any, error)
	// Name identifies the codec in logs and configuration.
	Name() string
}

// Error is returned by every codec on failure.
type Error struct {
	Codec string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec %s: %s: %v", e.Codec, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(codec, op string, err error) *Error {
	return &Error{Codec: codec, Op: op, Err: err}
}

// ------------------------------------------------------------------------------------------------
// ~ Pipelines
// ------------------------------------------------------------------------------------------------

// Default is the production pipeline: msgpack followed by zlib.
func Default() Codec {
	return Chain(MsgPack(), Zlib())
}

// Compat reads and writes data produced by the previous key-value deployment.
func Compat() Codec {
	return Chain(MsgPack(), Zlib())
}

// Legacy is the pre-versioning pipeline which only compresses raw bytes.
func Legacy() Codec {
	return Zlib()
}

// Parse resolves a pipeline from its configuration name, e.g. "msgpack+zlib".
func Parse(name string) (Codec, error) {
	if name == "" || name == "default" {
		return Default(), nil
	}
	parts := strings.Split(name, "+")
	stages := make([]Codec, 0, len(parts))
	for _, part := range parts {
		switch strings.TrimSpace(part) {
		case "identity":
			stages = append(stages, Identity())
		case "msgpack":
			stages = append(stages, MsgPack())
		case "json":
			stages = append(stages, JSON())
		case "zlib":
			stages = append(stages, Zlib())
		default:
			return nil, fmt.Errorf("unknown codec %q (supported: identity, msgpack, json, zlib)", part)
		}
	}
	if len(stages) == 1 {
		return stages[0], nil
	}
	return Chain(stages...), nil
}
