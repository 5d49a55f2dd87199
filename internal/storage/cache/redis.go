// Package cache holds the Redis-backed key/value and rate-limit state shared
// by the pipeline workers and the admin API.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is re-exported so callers can branch on cache misses without importing
// go-redis themselves.
var Nil = redis.Nil

// Redis wraps go-redis with the JSON get/set and pub/sub surface the service
// uses.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects using a redis:// URL and fails fast on a bad endpoint.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{rdb: rdb}, nil
}

// NewRedisFromClient wraps an existing client. Tests use it with miniredis.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// GetJSON returns redis.Nil (re-exported as Nil) on a miss.
func (c *Redis) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (c *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, bytes, ttl).Err()
}

func (c *Redis) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Publish sends a JSON-encoded payload on a pub/sub channel.
func (c *Redis) Publish(ctx context.Context, channel string, payload any) error {
	bytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, channel, bytes).Err()
}

// Subscribe returns the raw subscription; callers own its lifecycle.
func (c *Redis) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}
