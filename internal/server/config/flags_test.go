package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-r", "postgres", "-f", "/var/lib/ash", "-d", "db",
				"-s", "secret", "-w", "$2a$10$hash", "-t", "10", "-l", "45", "-k", "14",
				"-m", "4", "-o", "20", "-n", "6", "-e", "ops@example.com",
			},
			expected: &Config{
				HTTPAddr:           "127.0.0.1:9090",
				StorageDriver:      "postgres",
				DataDir:            "/var/lib/ash",
				DatabaseDSN:        "db",
				SecretKey:          "secret",
				AdminPasswordHash:  "$2a$10$hash",
				AdminTokenValidity: 10 * time.Minute,
				SessionTTL:         45 * time.Minute,
				KeyValidityDays:    14,
				MaxFailedAttempts:  4,
				LockoutDuration:    20 * time.Minute,
				KeyAttemptCeiling:  6,
				OperatorEmail:      "ops@example.com",
			},
		},
		{
			name: "unrelated flags are ignored",
			args: []string{"cmd", "-c", "cfg.json", "-a", ":1"},
			expected: &Config{
				HTTPAddr: ":1",
			},
		},
		{
			name:        "bad integer panics",
			args:        []string{"cmd", "-m", "many"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
