// Package cache keeps the Redis-backed pieces of the tutor: distributed
// session locks and the built-domain cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sigma-teacher/tutor/internal/platform/config"
)

// Cache owns a Redis connection and the key prefix every store built from
// it shares.
type Cache struct {
	client redis.UniversalClient
	prefix string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to the Redis at cfg.URL and pings it.
func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	opts, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient wraps an existing client, such as a cluster or sentinel
// client built elsewhere.
func NewFromClient(client redis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Client returns the underlying connection.
func (c *Cache) Client() redis.UniversalClient { return c.client }

// Prefix returns the key prefix shared by the stores built from c.
func (c *Cache) Prefix() string { return c.prefix }

// Locker returns a session Locker whose keys live under the cache prefix.
func (c *Cache) Locker(ttl time.Duration) *Locker {
	return NewLocker(c.client, c.prefix, ttl)
}

// Domains returns the JSON store used for built domain models.
func (c *Cache) Domains(ttl time.Duration) *JSONStore {
	return NewJSONStore(c.client, c.prefix, ttl)
}

// Close shuts down the connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// HealthCheck pings Redis.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health: %w", err)
	}
	return nil
}
