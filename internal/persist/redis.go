package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/happy-paws/petshop/internal/domain"
	"github.com/redis/go-redis/v9"
)

// snapshotKey is the single key holding the serialized shop state.
const snapshotKey = "petshop:snapshot"

// Redis persists the snapshot as a JSON blob under a single key. Suitable for
// deployments that already run Redis and want the snapshot off the local disk.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis storage backend.
func NewRedis(addr, password string, db int) (*Redis, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	// Snapshots never expire; the shop state is not a cache entry.
	return r.client.Set(ctx, snapshotKey, data, 0).Err()
}

func (r *Redis) Load(ctx context.Context) (*domain.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("corrupt snapshot in redis: %w", err)
	}
	return &snap, true, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
