// Package models - Service configuration and operational settings.
// This file defines the configuration tree shared by the CLI, the HTTP
// surface and the core utilities (rate limiter, cache, API client).
//
// Configuration Philosophy:
// - Hierarchical configuration grouped by component
// - Defaults that run locally with no external services (mock API, memory store)
// - Validation up front so misconfiguration fails at startup, not mid-request
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Storage type constants for the persistent cache tier.
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
	StorageTypeRedis    = "redis"
)

// Environment names.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

// Config is the root configuration structure.
//
// Configuration Structure:
// - App: identity, environment flags and mock toggle
// - Server: HTTP listener settings
// - API: upstream base URL and resilience knobs for the API client
// - RateLimit: outbound token buckets and the inbound per-client limiter
// - Cache: TTL defaults and sweep cadence
// - Storage: persistent cache tier backend
// - Logging, Metrics, Observability: ambient concerns
type Config struct {
	App           AppConfig           `yaml:"app" json:"app"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	API           APIConfig           `yaml:"api" json:"api"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type AppConfig struct {
	Name         string `yaml:"name" json:"name"`
	Version      string `yaml:"version" json:"version"`
	Environment  string `yaml:"environment" json:"environment"`
	Debug        bool   `yaml:"debug" json:"debug"`
	MockAPI      bool   `yaml:"mock_api" json:"mock_api"`
	ContactEmail string `yaml:"contact_email" json:"contact_email"`
}

// IsDevelopment reports whether verbose development behaviour is enabled.
func (a AppConfig) IsDevelopment() bool { return a.Environment == EnvironmentDevelopment }

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool { return a.Environment == EnvironmentProduction }

type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// APIConfig configures the outbound API client.
type APIConfig struct {
	BaseURL     string            `yaml:"base_url" json:"base_url"`
	Timeout     time.Duration     `yaml:"timeout" json:"timeout"`
	Retries     int               `yaml:"retries" json:"retries"`
	BackoffBase time.Duration     `yaml:"backoff_base" json:"backoff_base"`
	BackoffMax  time.Duration     `yaml:"backoff_max" json:"backoff_max"`
	Headers     map[string]string `yaml:"headers" json:"headers"`
}

// BucketConfig describes one outbound token bucket.
// RefillRate is the number of tokens added per RefillInterval.
type BucketConfig struct {
	MaxTokens      int           `yaml:"max_tokens" json:"max_tokens"`
	RefillRate     float64       `yaml:"refill_rate" json:"refill_rate"`
	RefillInterval time.Duration `yaml:"refill_interval" json:"refill_interval"`
}

type InboundRateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type RateLimitConfig struct {
	Default   BucketConfig            `yaml:"default" json:"default"`
	Endpoints map[string]BucketConfig `yaml:"endpoints" json:"endpoints"`
	Inbound   InboundRateLimitConfig  `yaml:"inbound" json:"inbound"`
}

type CacheConfig struct {
	DefaultTTL    time.Duration `yaml:"default_ttl" json:"default_ttl"`
	ContentTTL    time.Duration `yaml:"content_ttl" json:"content_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
	KeyPrefix     string        `yaml:"key_prefix" json:"key_prefix"`
}

type StorageConfig struct {
	Type       string         `yaml:"type" json:"type"`
	Path       string         `yaml:"path" json:"path"`
	QuotaBytes int64          `yaml:"quota_bytes" json:"quota_bytes"`
	Database   DatabaseConfig `yaml:"database" json:"database"`
	Redis      RedisConfig    `yaml:"redis" json:"redis"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	Table           string        `yaml:"table" json:"table"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	PoolSize  int    `yaml:"pool_size" json:"pool_size"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig returns a configuration that runs locally without any
// external service: mock content, in-memory persistent tier, text logs.
//
// Default Values Rationale:
// - API timeout 10s, 3 retries, backoff 1s doubling up to 10s
// - Outbound bucket of 10 tokens refilled at 2 per second
// - Cache entries live 5 minutes; expired entries are swept every 5 minutes
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:         "Creative Star Agency",
			Version:      "1.0.0",
			Environment:  EnvironmentDevelopment,
			MockAPI:      true,
			ContactEmail: "hello@creative-star.com",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		API: APIConfig{
			BaseURL:     "http://localhost:3000/api",
			Timeout:     10 * time.Second,
			Retries:     3,
			BackoffBase: time.Second,
			BackoffMax:  10 * time.Second,
			Headers:     map[string]string{},
		},
		RateLimit: RateLimitConfig{
			Default: BucketConfig{
				MaxTokens:      10,
				RefillRate:     2,
				RefillInterval: time.Second,
			},
			Endpoints: map[string]BucketConfig{},
			Inbound: InboundRateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				BurstSize:         20,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			DefaultTTL:    5 * time.Minute,
			ContentTTL:    10 * time.Minute,
			SweepInterval: 5 * time.Minute,
			KeyPrefix:     "cache_",
		},
		Storage: StorageConfig{
			Type:       StorageTypeMemory,
			Path:       "./data/cache.json",
			QuotaBytes: 5 * 1024 * 1024,
			Database: DatabaseConfig{
				Table:           "kv",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				PoolSize:  10,
				KeyPrefix: "storefront:",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "storefront",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("invalid app config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}
	return nil
}

func (a *AppConfig) Validate() error {
	if a.Name == "" {
		return errors.New("app name cannot be empty")
	}
	if _, err := semver.NewVersion(a.Version); err != nil {
		return fmt.Errorf("app version %q is not a semantic version: %w", a.Version, err)
	}
	switch a.Environment {
	case EnvironmentDevelopment, EnvironmentProduction, EnvironmentTest:
	default:
		return fmt.Errorf("invalid environment: %s", a.Environment)
	}
	if a.IsProduction() && a.MockAPI {
		return errors.New("mock_api must be disabled in production")
	}
	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}
	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 || sc.ShutdownTimeout < 0 {
		return errors.New("server timeouts cannot be negative")
	}
	return nil
}

func (ac *APIConfig) Validate() error {
	if ac.BaseURL == "" {
		return errors.New("base url cannot be empty")
	}
	if ac.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if ac.Retries < 0 {
		return errors.New("retries cannot be negative")
	}
	if ac.BackoffBase <= 0 {
		return errors.New("backoff base must be positive")
	}
	if ac.BackoffMax < ac.BackoffBase {
		return errors.New("backoff max cannot be smaller than backoff base")
	}
	return nil
}

func (bc *BucketConfig) Validate() error {
	if bc.MaxTokens <= 0 {
		return errors.New("max tokens must be positive")
	}
	if bc.RefillRate <= 0 {
		return errors.New("refill rate must be positive")
	}
	if bc.RefillInterval < 0 {
		return errors.New("refill interval cannot be negative")
	}
	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if err := rc.Default.Validate(); err != nil {
		return fmt.Errorf("default bucket: %w", err)
	}
	for endpoint, bucket := range rc.Endpoints {
		if endpoint == "" {
			return errors.New("endpoint override key cannot be empty")
		}
		if err := bucket.Validate(); err != nil {
			return fmt.Errorf("endpoint %s: %w", endpoint, err)
		}
	}
	if rc.Inbound.Enabled {
		if rc.Inbound.RequestsPerMinute <= 0 {
			return errors.New("inbound requests per minute must be positive")
		}
		if rc.Inbound.BurstSize <= 0 {
			return errors.New("inbound burst size must be positive")
		}
		if rc.Inbound.CleanupInterval <= 0 {
			return errors.New("inbound cleanup interval must be positive")
		}
	}
	return nil
}

func (cc *CacheConfig) Validate() error {
	if cc.DefaultTTL <= 0 {
		return errors.New("default ttl must be positive")
	}
	if cc.ContentTTL < 0 {
		return errors.New("content ttl cannot be negative")
	}
	if cc.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if cc.KeyPrefix == "" {
		return errors.New("key prefix cannot be empty")
	}
	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
		if stc.QuotaBytes < 0 {
			return errors.New("quota cannot be negative")
		}
	case StorageTypeJSON:
		if stc.Path == "" {
			return errors.New("path is required for JSON storage")
		}
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return errors.New("database DSN is required for database storage")
		}
	case StorageTypeRedis:
		if stc.Redis.Addr == "" {
			return errors.New("redis address is required for redis storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	switch lc.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}
	switch lc.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}
	switch lc.Output {
	case "stdout", "stderr":
	case "file":
		if lc.FilePath == "" {
			return errors.New("file path is required when output is file")
		}
	default:
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}
	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}
	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}
	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}
	if oc.ServiceName == "" {
		return errors.New("service name is required when tracing is enabled")
	}
	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}
