package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/config"
)

type testStruct struct {
	Name  string
	Price float64
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		Address:  mr.Addr(),
		Password: "",
		DB:       0,
		User:     "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := testStruct{Name: "Netflix", Price: 9.99}
	err := cache.Set("subscription:1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get("subscription:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGet_Missing(t *testing.T) {
	cache := setupTestCache(t)

	var actual testStruct
	found, err := cache.Get("subscription:unknown", &actual)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("subscription:1", testStruct{Name: "Spotify"}, time.Minute))
	require.NoError(t, cache.Invalidate("subscription:1"))

	var actual testStruct
	found, err := cache.Get("subscription:1", &actual)
	require.NoError(t, err)
	assert.False(t, found)
}
