// Package cache stores computed badge progress between checks.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/focusnest/seeding-service/internal/badge"
)

const keyPrefix = "seeding:progress:"

// DefaultTTL bounds how stale cached progress can get when an invalidation is missed.
const DefaultTTL = 15 * time.Minute

// Redis keeps progress as JSON under one key per user.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects using a redis:// URL and verifies the connection.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func key(userID string) string { return keyPrefix + userID }

func (c *Redis) Get(ctx context.Context, userID string) ([]badge.Progress, bool, error) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var progress []badge.Progress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return progress, true, nil
}

func (c *Redis) Set(ctx context.Context, userID string, progress []badge.Progress) error {
	if progress == nil {
		progress = []badge.Progress{}
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Set(ctx, key(userID), data, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, key(userID)).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]badge.Progress, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []badge.Progress) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
