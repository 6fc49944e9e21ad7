// Package cache provides a Redis backed result cache shared between API
// replicas.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix     = "restaurantia:results:"
	generationKey = keyPrefix + "generation"
	defaultTTL    = 5 * time.Minute
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisResultCache stores encoded query results under a generation number.
// Invalidate bumps the generation so stale entries are never read again and
// expire on their own TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to Redis and verifies the connection with a ping.
func Open(ctx context.Context, opts Options) (*RedisResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisResultCache(client, opts.TTL), nil
}

// NewRedisResultCache wraps an existing client. A non-positive ttl falls back
// to five minutes.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

// Get returns the value stored for key in the current generation.
func (c *RedisResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	generation, err := c.generation(ctx)
	if err != nil {
		return nil, false, err
	}
	data, err := c.client.Get(ctx, entryKey(generation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores value for key in the current generation.
func (c *RedisResultCache) Set(ctx context.Context, key string, value []byte) error {
	generation, err := c.generation(ctx)
	if err != nil {
		return err
	}
	return c.SetAt(ctx, generation, key, value)
}

// Generation returns the current generation number.
func (c *RedisResultCache) Generation(ctx context.Context) (int64, error) {
	return c.generation(ctx)
}

// SetAt stores value under generation. Nothing is written once the
// generation has moved on; an entry that races an invalidation lands under the
// old generation, which Get never reads.
func (c *RedisResultCache) SetAt(ctx context.Context, generation int64, key string, value []byte) error {
	current, err := c.generation(ctx)
	if err != nil {
		return err
	}
	if current != generation {
		return nil
	}
	if err := c.client.Set(ctx, entryKey(generation, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate starts a new generation.
func (c *RedisResultCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

// Ping checks that Redis answers.
func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *RedisResultCache) Close() error {
	return c.client.Close()
}

func (c *RedisResultCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis generation: %w", err)
	}
	generation, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis generation %q: %w", raw, err)
	}
	return generation, nil
}

func entryKey(generation int64, key string) string {
	return keyPrefix + strconv.FormatInt(generation, 10) + ":" + key
}
