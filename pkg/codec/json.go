package codec

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonCodec struct{}

// JSON encodes payloads as JSON. Numbers decode as float64.
func JSON() Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string {
	return "json"
}

func (c jsonCodec) Pack(payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(c.Name(), "pack", err)
	}
	return data, nil
}

func (c jsonCodec) Unpack(packed any) (any, error) {
	data, err := asBytes(packed)
	if err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, newError(c.Name(), "unpack", err)
	}
	return payload, nil
}
