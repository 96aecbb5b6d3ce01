package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pglens/internal/models"
)

// SnapshotCache keeps catalog snapshots between processes.
type SnapshotCache interface {
	Load(ctx context.Context, connectionID string) (*models.Snapshot, bool, error)
	Store(ctx context.Context, connectionID string, snap *models.Snapshot) error
	Delete(ctx context.Context, connectionID string) error
}

// RedisRepository is a SnapshotCache backed by Redis.
type RedisRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRepository(rdb *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func snapshotKey(connectionID string) string {
	return "pglens:snapshot:" + connectionID
}

func (r *RedisRepository) Load(ctx context.Context, connectionID string) (*models.Snapshot, bool, error) {
	data, err := r.rdb.Get(ctx, snapshotKey(connectionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("corrupt cached snapshot for %s: %w", connectionID, err)
	}
	return &snap, true, nil
}

func (r *RedisRepository) Store(ctx context.Context, connectionID string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, snapshotKey(connectionID), data, r.ttl).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, connectionID string) error {
	return r.rdb.Del(ctx, snapshotKey(connectionID)).Err()
}
