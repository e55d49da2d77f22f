package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storefront/internal/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOREFRONT_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("Ignoring invalid integer environment variable", "variable", EnvPrefix+name, "value", v)
			return
		}
		*dst = n
	}
}

func envInt64(name string, dst *int64) {
	if v, ok := lookup(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			slog.Warn("Ignoring invalid integer environment variable", "variable", EnvPrefix+name, "value", v)
			return
		}
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	if v, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("Ignoring invalid number environment variable", "variable", EnvPrefix+name, "value", v)
			return
		}
		*dst = f
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("Ignoring invalid duration environment variable", "variable", EnvPrefix+name, "value", v)
			return
		}
		*dst = d
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		*dst = strings.ToLower(v) == "true" || v == "1"
	}
}

// loadFromEnvironment applies STOREFRONT_* overrides on top of the file values.
func loadFromEnvironment(config *models.Config) {
	// App
	envString("APP_NAME", &config.App.Name)
	envString("APP_VERSION", &config.App.Version)
	envString("ENVIRONMENT", &config.App.Environment)
	envBool("DEBUG", &config.App.Debug)
	envBool("MOCK_API", &config.App.MockAPI)
	envString("CONTACT_EMAIL", &config.App.ContactEmail)

	// Server
	envInt("PORT", &config.Server.Port)
	envString("HOST", &config.Server.Host)
	envDuration("READ_TIMEOUT", &config.Server.ReadTimeout)
	envDuration("WRITE_TIMEOUT", &config.Server.WriteTimeout)
	envDuration("IDLE_TIMEOUT", &config.Server.IdleTimeout)
	envDuration("SHUTDOWN_TIMEOUT", &config.Server.ShutdownTimeout)

	// Upstream API
	envString("API_BASE_URL", &config.API.BaseURL)
	envDuration("API_TIMEOUT", &config.API.Timeout)
	envInt("API_RETRIES", &config.API.Retries)
	envDuration("API_BACKOFF_BASE", &config.API.BackoffBase)
	envDuration("API_BACKOFF_MAX", &config.API.BackoffMax)

	// Rate limiting
	envInt("RATE_LIMIT_MAX_TOKENS", &config.RateLimit.Default.MaxTokens)
	envFloat("RATE_LIMIT_REFILL_RATE", &config.RateLimit.Default.RefillRate)
	envDuration("RATE_LIMIT_REFILL_INTERVAL", &config.RateLimit.Default.RefillInterval)
	envBool("INBOUND_RATE_LIMIT_ENABLED", &config.RateLimit.Inbound.Enabled)
	envInt("INBOUND_REQUESTS_PER_MINUTE", &config.RateLimit.Inbound.RequestsPerMinute)
	envInt("INBOUND_BURST_SIZE", &config.RateLimit.Inbound.BurstSize)

	// Cache
	envDuration("CACHE_DEFAULT_TTL", &config.Cache.DefaultTTL)
	envDuration("CACHE_CONTENT_TTL", &config.Cache.ContentTTL)
	envDuration("CACHE_SWEEP_INTERVAL", &config.Cache.SweepInterval)
	envString("CACHE_KEY_PREFIX", &config.Cache.KeyPrefix)

	// Storage
	envString("STORAGE_TYPE", &config.Storage.Type)
	envString("STORAGE_PATH", &config.Storage.Path)
	envInt64("STORAGE_QUOTA_BYTES", &config.Storage.QuotaBytes)
	envString("DATABASE_DSN", &config.Storage.Database.DSN)
	envString("DATABASE_TABLE", &config.Storage.Database.Table)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Storage.Database.MaxIdleConns)
	envString("REDIS_ADDR", &config.Storage.Redis.Addr)
	envString("REDIS_PASSWORD", &config.Storage.Redis.Password)
	envInt("REDIS_DB", &config.Storage.Redis.DB)
	envInt("REDIS_POOL_SIZE", &config.Storage.Redis.PoolSize)
	envString("REDIS_KEY_PREFIX", &config.Storage.Redis.KeyPrefix)

	// Logging
	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)
	envString("LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics and tracing
	envBool("METRICS_ENABLED", &config.Metrics.Enabled)
	envString("METRICS_PATH", &config.Metrics.Path)
	envInt("METRICS_PORT", &config.Metrics.Port)
	envString("SERVICE_NAME", &config.Observability.ServiceName)
	envBool("TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
	envFloat("TRACING_SAMPLE_RATE", &config.Observability.Tracing.SampleRate)
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	// Show an override so operators see the map shape.
	config.RateLimit.Endpoints["/contact"] = models.BucketConfig{
		MaxTokens:      1,
		RefillRate:     1,
		RefillInterval: time.Second,
	}
	config.API.Headers["X-Client"] = "storefront"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
