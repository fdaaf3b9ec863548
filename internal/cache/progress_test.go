package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/seeding-service/internal/badge"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Noop

	require.NoError(t, c.Set(ctx, "u1", []badge.Progress{{BadgeID: "first_step"}}))
	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx, "u1"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "seeding:progress:user_123", key("user_123"))
}

func TestNewRedis_RejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "http://localhost:6379", time.Minute)
	assert.Error(t, err)
}

func TestNewRedisWithClient_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DefaultTTL, NewRedisWithClient(client, 0).ttl)
	assert.Equal(t, time.Minute, NewRedisWithClient(client, time.Minute).ttl)
}

func TestRedis_UnreachableIsAnErrorNotAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisWithClient(client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(context.Background(), "u1")
	assert.Error(t, err)
	assert.False(t, ok)
}
