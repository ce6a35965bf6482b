package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exsim-backend/internal/config"
)

// SnapshotRepository keeps each owner's in-progress session snapshot in Redis.
type SnapshotRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotRepository creates a new SnapshotRepository. A zero ttl keeps
// snapshots until they are deleted.
func NewSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{rdb: rdb, ttl: ttl}
}

// Save overwrites the owner's snapshot and refreshes its expiry.
func (r *SnapshotRepository) Save(ctx context.Context, ownerID string, data []byte) error {
	if err := r.rdb.Set(ctx, config.CacheKey.ExamSessionKey(ownerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// Load returns the owner's snapshot or nil when the key is absent.
func (r *SnapshotRepository) Load(ctx context.Context, ownerID string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.ExamSessionKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the owner's snapshot.
func (r *SnapshotRepository) Delete(ctx context.Context, ownerID string) error {
	if err := r.rdb.Del(ctx, config.CacheKey.ExamSessionKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
