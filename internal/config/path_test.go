package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("PERKLY_TEST_DIR", "/tmp/perkly")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde prefix",
			input:    "~/data/perkly.db",
			expected: filepath.Join(home, "data/perkly.db"),
		},
		{
			name:     "bare tilde",
			input:    "~",
			expected: home,
		},
		{
			name:     "environment variable",
			input:    "$PERKLY_TEST_DIR/perkly.db",
			expected: "/tmp/perkly/perkly.db",
		},
		{
			name:     "plain path untouched",
			input:    "/var/lib/perkly.db",
			expected: "/var/lib/perkly.db",
		},
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}
