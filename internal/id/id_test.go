package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsValid(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		v := New()
		require.Len(t, v, 24)
		assert.True(t, Valid(v), "generated id should be valid: %s", v)
		assert.False(t, seen[v], "ID should be unique: %s", v)
		seen[v] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"65f1c2a9e4b0a1b2c3d4e5f6", true},
		{"65F1C2A9E4B0A1B2C3D4E5F6", true},
		{"not-an-id", false},
		{"", false},
		{"65f1c2a9e4b0a1b2c3d4e5f", false},
		{"65f1c2a9e4b0a1b2c3d4e5fz", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}

func TestGenerate_Format(t *testing.T) {
	v, err := Generate("tok")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(v, "tok-"))
	// Default NanoID length is 21.
	assert.Len(t, v, len("tok-")+21)
}

func TestMustGenerate_Unique(t *testing.T) {
	assert.NotEqual(t, MustGenerate("tok"), MustGenerate("tok"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "65f1c2a9e4b0a1b2c3d4e5f6", Normalize("65F1C2A9E4B0A1B2C3D4E5F6"))
	assert.Equal(t, "Not-An-Id", Normalize("Not-An-Id"))
}
