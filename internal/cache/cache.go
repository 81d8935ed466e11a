// Package cache provides a best-effort Redis cache for read-heavy catalog
// lookups. Every operation degrades to a miss when Redis is unreachable or
// not configured, so callers always keep the database as source of truth.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lamngo/formflow/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const catalogTTL = 5 * time.Minute

// NewRedisClient builds the shared Redis client, or nil when REDIS_ADDR is
// not configured (repositories then run uncached).
func NewRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("Redis not configured, catalog cache disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

type CatalogCache struct {
	rdb *redis.Client
}

func NewCatalogCache(rdb *redis.Client) *CatalogCache {
	return &CatalogCache{rdb: rdb}
}

// Get unmarshals the cached value into dest, reporting whether it was a hit.
func (c *CatalogCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache entry corrupt, dropping")
		c.Invalidate(ctx, key)
		return false
	}
	return true
}

// Set stores val under key; failures are logged and swallowed.
func (c *CatalogCache) Set(ctx context.Context, key string, val interface{}) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, catalogTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

// Invalidate drops a key after catalog mutations.
func (c *CatalogCache) Invalidate(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache invalidation failed")
	}
}
