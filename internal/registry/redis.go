package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for spent nullifiers.
const spentNullifierKeyPrefix = "zkreview:nf:"

// RedisRegistry is a Redis-backed nullifier registry for deployments
// where multiple instances must share duplicate-detection state.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry connects to Redis from a URL and verifies the
// connection.
func NewRedisRegistry(ctx context.Context, url string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisRegistry{client: client}, nil
}

// Spend atomically marks a nullifier as spent. SETNX makes the first
// writer win; everyone else gets ErrDuplicate.
func (r *RedisRegistry) Spend(ctx context.Context, nullifier *big.Int) error {
	key := spentNullifierKeyPrefix + nullifier.String()
	ok, err := r.client.SetNX(ctx, key, "1", 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Seen checks whether a nullifier has been spent.
func (r *RedisRegistry) Seen(ctx context.Context, nullifier *big.Int) (bool, error) {
	key := spentNullifierKeyPrefix + nullifier.String()
	_, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Health checks the Redis connection.
func (r *RedisRegistry) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
