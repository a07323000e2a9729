package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	tests := map[string]bool{
		"http://localhost:8080/snapshotstore": true,
		"https://example.com":                 true,
		"redis://localhost:6379":              false,
		"http://":                             false,
		"localhost:8080":                      false,
		"":                                    false,
		"http://[::1":                         false,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, IsValidURL(input))
		})
	}
}
