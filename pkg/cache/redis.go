package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"websiteemas/pkg/config"
)

// ErrNotObtained is returned by Lock when another holder has the key.
var ErrNotObtained = redislock.ErrNotObtained

// Redis wraps an optional redis connection. Every method is safe on a nil
// *Redis and then behaves as an always-empty cache with uncontended locks.
type Redis struct {
	rdb    *redis.Client
	locker *redislock.Client
}

// Connect returns nil (and no error) when no address is configured.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Address, err)
	}
	return New(rdb), nil
}

// New wraps an existing client.
func New(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, locker: redislock.New(rdb)}
}

func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.rdb.Close()
}

// GetObject decodes the JSON value at key into dest. It reports false when
// the key is absent.
func (r *Redis) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if r == nil {
		return false, nil
	}
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetObject(ctx context.Context, key string, obj any, exp time.Duration) error {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, b, exp).Err()
}

func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	if r == nil {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// Lock takes a short-lived distributed lock. The returned release func is
// never nil. Without redis the lock is always granted.
func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if r == nil {
		return func() {}, nil
	}
	lock, err := r.locker.Obtain(ctx, key, ttl, nil)
	if err != nil {
		return func() {}, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}
