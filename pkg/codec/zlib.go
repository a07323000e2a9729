package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

type zlibCodec struct {
	level int
}

// Zlib compresses byte payloads. It favours speed over ratio.
func Zlib() Codec {
	return zlibCodec{level: zlib.BestSpeed}
}

func (zlibCodec) Name() string {
	return "zlib"
}

func (c zlibCodec) Pack(payload any) (any, error) {
	data, err := asBytes(payload)
	if err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	if err := w.Close(); err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	return buf.Bytes(), nil
}

func (c zlibCodec) Unpack(packed any) (any, error) {
	data, err := asBytes(packed)
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	defer r.Close()
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	return payload, nil
}
