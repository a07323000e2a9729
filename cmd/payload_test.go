package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	payload, err := decodePayload([]byte(`{"a":1,"b":["x"]}`), "json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{"x"}}, payload)

	payload, err = decodePayload([]byte("blob"), "raw")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), payload)

	_, err = decodePayload([]byte("{"), "json")
	assert.Error(t, err)

	_, err = decodePayload([]byte("{}"), "yaml")
	assert.Error(t, err)
}

func TestEncodePayload(t *testing.T) {
	bytes, err := encodePayload(map[string]any{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(bytes))

	bytes, err = encodePayload([]byte(`{"b":2}`), "json")
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(bytes))

	bytes, err = encodePayload("text", "raw")
	require.NoError(t, err)
	assert.Equal(t, "text", string(bytes))

	_, err = encodePayload(map[string]any{}, "raw")
	assert.Error(t, err)

	_, err = encodePayload(nil, "yaml")
	assert.Error(t, err)
}
