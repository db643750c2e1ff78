package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "secret",
				"-t", "15", "-r", "redis:6379", "-l", "https://yapplr.com/reset", "-m", "smtp",
			},
			expected: &Config{
				HTTPAddr:             "127.0.0.1:9090",
				GRPCAddr:             ":6000",
				DatabaseDSN:          "db",
				SecretKey:            "secret",
				SessionTokenValidity: 15 * time.Minute,
				RedisAddr:            "redis:6379",
				ResetLinkURL:         "https://yapplr.com/reset",
				Mail:                 MailConfig{Provider: "smtp"},
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-test.v", "-x", "1", "-d", "db"},
			expected: &Config{DatabaseDSN: "db"},
		},
		{
			name:        "non-numeric validity panics",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
