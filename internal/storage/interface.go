package storage

import (
	"context"
	"time"
)

// Store is the persistent key/value tier behind the cache manager.
// Values are opaque strings; the cache layer owns their encoding.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// Quota-limited backends return ErrQuotaExceeded.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix. An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (memory, json, sqlite, postgres, redis)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// Table names the key/value table for database backends
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// QuotaBytes caps the memory backend; zero means unlimited
	QuotaBytes int64 `json:"quota_bytes,omitempty" yaml:"quota_bytes,omitempty"`

	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`

	Redis RedisOptions `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db" yaml:"db"`
	PoolSize  int    `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

const defaultTable = "kv"

func (c Config) table() string {
	if c.Table == "" {
		return defaultTable
	}
	return c.Table
}
