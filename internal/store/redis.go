package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/treasurehunt/internal/hunt"
)

const progressPrefix = "progress:"

// RedisProgress keeps snapshots under progress:<game id> with a sliding
// TTL, so abandoned games expire on their own.
type RedisProgress struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ProgressStore = (*RedisProgress)(nil)

// NewRedisProgress wraps client. A zero ttl keeps keys forever.
func NewRedisProgress(client *redis.Client, ttl time.Duration) *RedisProgress {
	return &RedisProgress{client: client, ttl: ttl}
}

// OpenRedis parses a redis:// URL and verifies the server answers.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func (r *RedisProgress) SaveProgress(ctx context.Context, gameID string, snap hunt.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := r.client.Set(ctx, progressPrefix+gameID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving progress %s: %w", gameID, err)
	}
	return nil
}

func (r *RedisProgress) LoadProgress(ctx context.Context, gameID string) (hunt.Snapshot, error) {
	data, err := r.client.Get(ctx, progressPrefix+gameID).Bytes()
	if errors.Is(err, redis.Nil) {
		return hunt.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return hunt.Snapshot{}, fmt.Errorf("loading progress %s: %w", gameID, err)
	}
	return hunt.DecodeSnapshot(data)
}

func (r *RedisProgress) DeleteProgress(ctx context.Context, gameID string) error {
	if err := r.client.Del(ctx, progressPrefix+gameID).Err(); err != nil {
		return fmt.Errorf("deleting progress %s: %w", gameID, err)
	}
	return nil
}

// Ping checks the connection.
func (r *RedisProgress) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
