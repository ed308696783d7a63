package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache(WithMemoryMaxSize(4))
	require.NoError(t, err)

	in := []payload{{Date: "2025/01/01", Price: 80.12}}
	require.NoError(t, mc.Set(ctx, "forecast:a", in, time.Minute))

	var out []payload
	require.NoError(t, mc.Get(ctx, "forecast:a", &out))
	assert.Equal(t, in, out)

	got, err := GetTyped[[]payload](ctx, mc, "forecast:a")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	assert.ErrorIs(t, mc.Get(ctx, "forecast:missing", &out), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache()
	require.NoError(t, err)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache(WithMemoryMaxSize(2))
	require.NoError(t, err)

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	ok, _ := mc.Exists(ctx, "b")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "a")
	assert.True(t, ok)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache()
	require.NoError(t, err)

	require.NoError(t, mc.Set(ctx, GenerateKeyWithParams("forecast", "m1", "2025-01-01", 5), 1, 0))
	require.NoError(t, mc.Set(ctx, GenerateKeyWithParams("forecast", "m1", "2025-01-01", 6), 1, 0))
	require.NoError(t, mc.Set(ctx, "history:all", 1, 0))

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("forecast:")))
	assert.Equal(t, 1, mc.Len())
	ok, _ := mc.Exists(ctx, "history:all")
	assert.True(t, ok)
}
