// internal/storage/redis_cache.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache shares cached values between service instances
type RedisCache struct {
	rdb        *redis.Client
	prefix     string
	expiration time.Duration
}

// NewRedisCache connects to addr and checks the connection
func NewRedisCache(addr, prefix string, expiration time.Duration) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return NewRedisCacheFromClient(rdb, prefix, expiration), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client, prefix string, expiration time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "creativestudio:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix, expiration: expiration}
}

// Get returns the cached value for key
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

// Set stores value under key with the configured expiration
func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, r.expiration).Err()
}

// Delete removes key
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}

// Close closes the client
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
