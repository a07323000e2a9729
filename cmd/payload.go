package cmd

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// decodePayload turns stdin or file contents into a snapshot payload
func decodePayload(data []byte, format string) (any, error) {
	switch format {
	case "raw":
		return data, nil
	case "json":
		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, errors.Wrap(err, "failed to decode json payload")
		}
		return payload, nil
	default:
		return nil, errors.Errorf("unknown format: %s (supported: json, raw)", format)
	}
}

// encodePayload renders a snapshot payload for stdout
func encodePayload(payload any, format string) ([]byte, error) {
	switch format {
	case "raw":
		switch t := payload.(type) {
		case []byte:
			return t, nil
		case string:
			return []byte(t), nil
		default:
			return nil, errors.Errorf("payload of type %T has no raw representation", payload)
		}
	case "json":
		if b, ok := payload.([]byte); ok && json.Valid(b) {
			return b, nil
		}
		bytes, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode json payload")
		}
		return bytes, nil
	default:
		return nil, errors.Errorf("unknown format: %s (supported: json, raw)", format)
	}
}
