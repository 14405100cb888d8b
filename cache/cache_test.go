package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()
	key := c.GenerateKey("create_invoice", "7:abc-"+t.Name())

	val, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, val)

	ok, err := c.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, `{"status":201}`, time.Minute))
	val, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"status":201}`, val)

	require.NoError(t, c.Del(ctx, key))
	val, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache("pos")
	assert.Equal(t, "pos:settle:1", c.GenerateKey("settle", "1"))
	assert.NoError(t, Ping(context.Background(), c))
	exerciseCache(t, c)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache("pos")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)

	ok, err := c.SetNX(ctx, "k", "again", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := NewRedisCache(addr, "pos-test")
	require.NoError(t, Ping(context.Background(), c))
	exerciseCache(t, c)
}
