// Package cache provides a Redis-backed cache for metadata lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default TTLs per cached kind.
const (
	DefaultSearchTTL  = 15 * time.Minute
	DefaultDetailsTTL = 24 * time.Hour
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "streamfusion:cache:"

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SearchTTL  time.Duration
	DetailsTTL time.Duration

	// DisableOnError stops using Redis after the first failure.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration without an address.
func DefaultConfig() Config {
	return Config{
		SearchTTL:      DefaultSearchTTL,
		DetailsTTL:     DefaultDetailsTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching that degrades to a no-op when Redis
// is missing or failing.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// New creates a cache. An empty address, or a Redis that does not answer
// a ping, yields a disabled cache rather than an error.
func New(cfg Config, logger zerolog.Logger) *Cache {
	logger = logger.With().Str("component", "cache").Logger()
	if cfg.RedisAddr == "" {
		return &Cache{logger: logger, config: cfg, disabled: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return &Cache{logger: logger, config: cfg, disabled: true}
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")
	return &Cache{client: client, logger: logger, config: cfg}
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client, cfg Config, logger zerolog.Logger) *Cache {
	return &Cache{client: client, logger: logger.With().Str("component", "cache").Logger(), config: cfg}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// Get loads a JSON value into dest. It reports false on a miss and on any
// failure.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || !c.IsAvailable() {
		return false
	}

	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		c.handleError(err, "get")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false
	}
	return true
}

// Set stores a JSON value with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, KeyPrefix+key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || !c.IsAvailable() {
		return nil
	}
	if err := c.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}
	return nil
}

// SearchTTL is the configured lifetime for search results.
func (c *Cache) SearchTTL() time.Duration {
	if c == nil || c.config.SearchTTL <= 0 {
		return DefaultSearchTTL
	}
	return c.config.SearchTTL
}

// DetailsTTL is the configured lifetime for detail lookups.
func (c *Cache) DetailsTTL() time.Duration {
	if c == nil || c.config.DetailsTTL <= 0 {
		return DefaultDetailsTTL
	}
	return c.config.DetailsTTL
}
