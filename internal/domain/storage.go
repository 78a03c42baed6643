package domain

import (
	"context"
	"time"
)

// Storage is the persistence port injected into the store. Implementations
// write and read whole snapshots; the store's in-memory state remains the
// single source of truth between saves.
type Storage interface {
	// Save durably writes the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *Snapshot) error

	// Load reads the most recently saved snapshot.
	// Returns found=false when the backend holds no snapshot yet.
	Load(ctx context.Context) (snap *Snapshot, found bool, err error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// StorageConfig holds configuration for storage initialization.
type StorageConfig struct {
	// Driver is the storage backend: "memory", "file", "sqlite", "postgres" or "redis"
	Driver string

	// File specific
	FilePath string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis specific
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
