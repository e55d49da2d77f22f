package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// App defaults
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, EnvironmentDevelopment, config.App.Environment)
	assert.True(t, config.App.MockAPI)
	assert.True(t, config.App.IsDevelopment())
	assert.False(t, config.App.IsProduction())

	// API client defaults
	assert.Equal(t, 10*time.Second, config.API.Timeout)
	assert.Equal(t, 3, config.API.Retries)
	assert.Equal(t, time.Second, config.API.BackoffBase)
	assert.Equal(t, 10*time.Second, config.API.BackoffMax)

	// Outbound bucket defaults
	assert.Equal(t, 10, config.RateLimit.Default.MaxTokens)
	assert.Equal(t, 2.0, config.RateLimit.Default.RefillRate)
	assert.Equal(t, time.Second, config.RateLimit.Default.RefillInterval)
	assert.True(t, config.RateLimit.Inbound.Enabled)

	// Cache defaults
	assert.Equal(t, 5*time.Minute, config.Cache.DefaultTTL)
	assert.Equal(t, 5*time.Minute, config.Cache.SweepInterval)
	assert.Equal(t, "cache_", config.Cache.KeyPrefix)

	// Storage defaults
	assert.Equal(t, StorageTypeMemory, config.Storage.Type)
	assert.Equal(t, "kv", config.Storage.Database.Table)

	// Logging and metrics defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.False(t, config.Metrics.Enabled)
	assert.False(t, config.Observability.Tracing.Enabled)

	require.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:     "empty app name",
			mutate:   func(c *Config) { c.App.Name = "" },
			errorMsg: "invalid app config",
		},
		{
			name:     "non-semver app version",
			mutate:   func(c *Config) { c.App.Version = "latest" },
			errorMsg: "not a semantic version",
		},
		{
			name:     "unknown environment",
			mutate:   func(c *Config) { c.App.Environment = "staging" },
			errorMsg: "invalid environment",
		},
		{
			name: "mock api in production",
			mutate: func(c *Config) {
				c.App.Environment = EnvironmentProduction
				c.App.MockAPI = true
			},
			errorMsg: "mock_api must be disabled in production",
		},
		{
			name:     "invalid port",
			mutate:   func(c *Config) { c.Server.Port = -1 },
			errorMsg: "invalid server config",
		},
		{
			name:     "missing base url",
			mutate:   func(c *Config) { c.API.BaseURL = "" },
			errorMsg: "invalid api config",
		},
		{
			name:     "negative retries",
			mutate:   func(c *Config) { c.API.Retries = -1 },
			errorMsg: "retries cannot be negative",
		},
		{
			name:     "backoff max below base",
			mutate:   func(c *Config) { c.API.BackoffMax = 500 * time.Millisecond },
			errorMsg: "backoff max",
		},
		{
			name:     "zero max tokens",
			mutate:   func(c *Config) { c.RateLimit.Default.MaxTokens = 0 },
			errorMsg: "max tokens must be positive",
		},
		{
			name: "bad endpoint override",
			mutate: func(c *Config) {
				c.RateLimit.Endpoints["/contact"] = BucketConfig{MaxTokens: 1, RefillRate: 0}
			},
			errorMsg: "endpoint /contact",
		},
		{
			name:     "zero ttl",
			mutate:   func(c *Config) { c.Cache.DefaultTTL = 0 },
			errorMsg: "invalid cache config",
		},
		{
			name:     "unknown storage type",
			mutate:   func(c *Config) { c.Storage.Type = "s3" },
			errorMsg: "invalid storage type",
		},
		{
			name:     "redis without address",
			mutate:   func(c *Config) { c.Storage.Type = StorageTypeRedis; c.Storage.Redis.Addr = "" },
			errorMsg: "redis address is required",
		},
		{
			name:     "sqlite without dsn",
			mutate:   func(c *Config) { c.Storage.Type = StorageTypeSQLite },
			errorMsg: "database DSN is required",
		},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "invalid log level",
		},
		{
			name:     "file output without path",
			mutate:   func(c *Config) { c.Logging.Output = "file" },
			errorMsg: "file path is required",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Observability.Tracing.Enabled = true
				c.Observability.Tracing.Exporter = "otlp"
			},
			errorMsg: "otlp endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	config := NewDefaultConfig()
	config.App.Environment = EnvironmentProduction
	config.App.MockAPI = false
	config.App.Version = "2.3.1-rc.1"

	assert.NoError(t, config.Validate())
	assert.True(t, config.App.IsProduction())
}
