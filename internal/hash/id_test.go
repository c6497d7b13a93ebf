package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("chat export payload")

	// Deterministic and consistent with the string form.
	require.Equal(t, Checksum(data), Checksum([]byte("chat export payload")))
	require.Equal(t, ID("chat export payload"), Checksum(data))
	require.NotEqual(t, Checksum(data), Checksum([]byte("chat export payloae")))
}
