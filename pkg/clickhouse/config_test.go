package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError error
	}{
		{
			name:   "valid config with HTTP URL",
			config: Config{URL: "http://localhost:8123"},
		},
		{
			name:   "valid config with HTTPS URL",
			config: Config{URL: "https://localhost:8443"},
		},
		{
			name:        "native protocol is not supported",
			config:      Config{URL: "clickhouse://localhost:9000"},
			expectError: ErrInvalidScheme,
		},
		{
			name:        "missing URL",
			config:      Config{},
			expectError: ErrURLRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	config := Config{URL: "http://localhost:8123"}

	config.SetDefaults()

	assert.Equal(t, 30*time.Second, config.QueryTimeout)
	assert.Equal(t, 5*time.Minute, config.InsertTimeout)
	assert.Equal(t, 30*time.Second, config.KeepAlive)
}

func TestConfig_ApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		env      map[string]string
		expected Config
	}{
		{
			name:     "no environment keeps config",
			url:      "http://ch:8123",
			expected: Config{URL: "http://ch:8123"},
		},
		{
			name: "host and port build URL when empty",
			env:  map[string]string{"HOST_CLICKHOUSE": "db.internal", "PORT_CLICKHOUSE": "8443"},
			expected: Config{
				URL: "http://db.internal:8443",
			},
		},
		{
			name:     "port replaces existing port",
			url:      "https://ch.example.com:8443",
			env:      map[string]string{"PORT_CLICKHOUSE": "9443"},
			expected: Config{URL: "https://ch.example.com:9443"},
		},
		{
			name: "credentials",
			url:  "http://ch:8123",
			env:  map[string]string{"USERNAME_CLICKHOUSE": "loader", "PASSWORD_CLICKHOUSE": "s3cret"},
			expected: Config{
				URL:      "http://ch:8123",
				Username: "loader",
				Password: "s3cret",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"HOST_CLICKHOUSE", "PORT_CLICKHOUSE", "USERNAME_CLICKHOUSE", "PASSWORD_CLICKHOUSE"} {
				t.Setenv(key, tt.env[key])
			}

			cfg := Config{URL: tt.url}
			cfg.ApplyEnv()

			assert.Equal(t, tt.expected, cfg)
		})
	}
}
