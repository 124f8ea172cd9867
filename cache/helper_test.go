package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedStats struct {
	Storytellers int64 `json:"storytellers"`
	TalesShared  int64 `json:"tales_shared"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestGetSetJSON(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		in := cachedStats{Storytellers: 3, TalesShared: 14}
		require.NoError(t, SetJSON(ctx, rdb, "stats:test", in, time.Minute))

		var out cachedStats
		found, err := GetJSON(ctx, rdb, "stats:test", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, out)
	})

	t.Run("miss returns not found", func(t *testing.T) {
		var out cachedStats
		found, err := GetJSON(ctx, rdb, "stats:absent", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired key misses", func(t *testing.T) {
		require.NoError(t, SetJSON(ctx, rdb, "stats:short", cachedStats{Storytellers: 1}, time.Second))
		mr.FastForward(2 * time.Second)

		var out cachedStats
		found, err := GetJSON(ctx, rdb, "stats:short", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		require.NoError(t, SetJSON(ctx, nil, "stats:test", cachedStats{}, time.Minute))

		var out cachedStats
		found, err := GetJSON(ctx, nil, "stats:test", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestCacheAside(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedStats) func() error {
		return func() error {
			fetches++
			dest.Storytellers = 7
			dest.TalesShared = 21
			return nil
		}
	}

	var first cachedStats
	require.NoError(t, CacheAside(ctx, rdb, "stats:site", &first, time.Minute, fetch(&first)))
	assert.Equal(t, int64(7), first.Storytellers)
	assert.Equal(t, 1, fetches)

	// Second read is served from cache without another fetch.
	var second cachedStats
	require.NoError(t, CacheAside(ctx, rdb, "stats:site", &second, time.Minute, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches)
}

func TestCacheAsideFetchError(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	sentinel := errors.New("db down")
	var out cachedStats
	err := CacheAside(ctx, rdb, "stats:site", &out, time.Minute, func() error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Failed fetches must not be cached.
	exists, err := rdb.Exists(ctx, "stats:site").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestCacheAsideWithoutRedis(t *testing.T) {
	var out cachedStats
	err := CacheAside(context.Background(), nil, "stats:site", &out, time.Minute, func() error {
		out.Storytellers = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Storytellers)
}
