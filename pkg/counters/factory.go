package counters

import (
	"fmt"

	"counterbot/pkg/logger"
)

// BackendType selects the storage backend.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendFile   BackendType = "file"
	BackendSQLite BackendType = "sqlite"
	BackendRedis  BackendType = "redis"
)

// StoreConfig configures the counter store.
type StoreConfig struct {
	Backend BackendType

	// File backend
	FilePath  string
	WatchFile bool

	// SQLite backend
	SQLitePath string

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// IDRefresh is a cron spec for reloading the counter id table. Empty disables it.
	IDRefresh string
}

// NewStore creates a store for the configured backend.
func NewStore(log *logger.Logger, cfg *StoreConfig) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil

	case BackendFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path is required for file backend")
		}
		return NewFileStore(log, &FileStoreConfig{
			FilePath: cfg.FilePath,
			Watch:    cfg.WatchFile,
		})

	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required for sqlite backend")
		}
		return NewSQLiteStore(log, cfg.SQLitePath)

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for redis backend")
		}
		return NewRedisStore(log, &RedisStoreConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown counter store backend: %s", cfg.Backend)
	}
}
