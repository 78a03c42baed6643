// Package persist provides snapshot storage implementations.
package persist

import (
	"fmt"

	"github.com/happy-paws/petshop/internal/domain"
)

// New creates a storage backend based on configuration.
func New(cfg domain.StorageConfig) (domain.Storage, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil

	case "file":
		return NewFile(cfg.FilePath)

	case "sqlite", "postgres":
		return NewSQL(cfg)

	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
