// Package cache provides a short-TTL JSON memoization layer over Redis for raw
// upstream responses. The derived models are always rebuilt per request; only the
// fetched payloads are cached, mirroring the dashboard's 60-second revalidation
// window. A nil *Cache is a no-op, so callers never branch on configuration.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Cache memoizes JSON-encoded values in Redis with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// New creates a cache backed by the Redis instance at addr. Returns nil when
// addr is empty, which disables caching entirely.
func New(addr, password string, ttl time.Duration, logger *logging.Logger) *Cache {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		ttl:    ttl,
		logger: logger.Component("cache"),
	}
}

// GetJSON loads the cached value for key into dest. Returns false on miss,
// decode failure, or Redis trouble; cache errors never surface to callers.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON stores value under key for the configured TTL. Best effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
