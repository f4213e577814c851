// internal/storage/cache.go
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Cache stores short string values, such as resolved media references
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options configure a cache backend
type Options struct {
	Backend    string // memory or redis
	MaxSize    int
	Expiration time.Duration
	RedisAddr  string
	Prefix     string
}

// New builds the cache backend named by opts.Backend
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryCache(opts.MaxSize, opts.Expiration), nil
	case "redis":
		return NewRedisCache(opts.RedisAddr, opts.Prefix, opts.Expiration)
	default:
		return nil, errors.New("unknown cache backend: " + opts.Backend)
	}
}
