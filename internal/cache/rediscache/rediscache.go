// Package rediscache implements cache.Adapter over go-redis/v9. Chosen as
// the production cache because it is the library the closest sibling
// banking project in the retrieval pack depends on directly (alongside its
// matching testcontainers redis module), for exactly this role.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"ledger-api/internal/logging"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a redis.Client. Every method swallows Redis errors to a
// zero-value result: the cache is a read accelerator, never authoritative,
// and its failures must never abort a write path.
type Cache struct {
	client *redis.Client
}

// Config holds the connection options recognized from the environment.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New dials Redis eagerly but does not fail the caller if the ping fails —
// a cache outage degrades to cache misses rather than refusing to start,
// the same discipline internal/components applies to the Kafka event
// publisher.
func New(cfg Config) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn("redis ping failed, cache will degrade to misses", map[string]any{
			"addr":  cfg.Addr,
			"error": err.Error(),
		})
	}

	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Warn("redis set failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logging.Warn("redis delete failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logging.Warn("redis set_json marshal failed", map[string]any{"key": key, "error": err.Error()})
		return
	}
	c.Set(ctx, key, string(raw), ttl)
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
