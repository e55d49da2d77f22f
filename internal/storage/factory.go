package storage

import (
	"fmt"

	"storefront/internal/models"
)

// Factory provides a centralized way to create storage instances based on configuration.
// This allows for easy extensibility and provider swapping without code changes.
type Factory struct{}

// NewFactory creates a new storage factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a store based on the provided configuration.
// Supported providers:
//   - json: JSON file-based storage (atomic writes, mtime-checked reloads)
//   - memory: In-memory storage with an optional byte quota
//   - postgres: PostgreSQL key/value table
//   - sqlite: SQLite key/value table
//   - redis: Redis strings under a key prefix
func (f *Factory) Create(config models.StorageConfig) (Store, error) {
	storageConfig := Config{
		Type:             config.Type,
		Path:             config.Path,
		ConnectionString: config.Database.DSN,
		Table:            config.Database.Table,
		QuotaBytes:       config.QuotaBytes,
		MaxOpenConns:     config.Database.MaxOpenConns,
		MaxIdleConns:     config.Database.MaxIdleConns,
		ConnMaxLifetime:  config.Database.ConnMaxLifetime,
		Redis: RedisOptions{
			Addr:      config.Redis.Addr,
			Password:  config.Redis.Password,
			DB:        config.Redis.DB,
			PoolSize:  config.Redis.PoolSize,
			KeyPrefix: config.Redis.KeyPrefix,
		},
	}

	switch config.Type {
	case models.StorageTypeJSON:
		return NewJSONStore(storageConfig)
	case models.StorageTypeMemory:
		return NewMemoryStore(storageConfig)
	case models.StorageTypePostgres:
		return NewPostgresStore(storageConfig)
	case models.StorageTypeSQLite:
		return NewSQLiteStore(storageConfig)
	case models.StorageTypeRedis:
		return NewRedisStore(storageConfig)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// GetSupportedProviders returns a list of all supported storage provider types
func (f *Factory) GetSupportedProviders() []string {
	return []string{
		models.StorageTypeJSON,
		models.StorageTypeMemory,
		models.StorageTypePostgres,
		models.StorageTypeRedis,
		models.StorageTypeSQLite,
	}
}
