package cache

import (
	"context"
	"time"
)

// Cache is the shared key-value surface used for presigned-URL caching and
// the idempotency store. Backed by go-cache in a single process, redis when
// several instances share state.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)

	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Add stores the value only when the key is absent; reports whether it
	// was stored.
	Add(ctx context.Context, key string, value interface{}, expiration time.Duration) bool

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) bool

	// GetWithTTL returns the value and its remaining lifetime.
	GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool)

	Clear(ctx context.Context) error

	Close() error
}

type Config struct {
	// "local" or "redis"
	Type string `json:"type" env:"CACHE_TYPE"`

	Redis RedisConfig `json:"redis"`

	Local LocalConfig `json:"local"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
	PoolSize int    `json:"pool_size" env:"REDIS_POOL_SIZE"`
}

type LocalConfig struct {
	DefaultExpiration time.Duration `json:"default_expiration" env:"LOCAL_CACHE_DEFAULT_EXPIRATION"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"LOCAL_CACHE_CLEANUP_INTERVAL"`
}
