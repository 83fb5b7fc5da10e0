package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheVersionAndKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ver)

	key, err := cache.BuildKey(ctx, "topselling", "5")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:topselling:5:1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, "topselling", "5")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:topselling:5:2", key)
}

func TestNilCacheBuildsPlainKeys(t *testing.T) {
	var cache *Cache
	key, err := cache.BuildKey(context.Background(), "counts")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:counts", key)
	require.NoError(t, cache.Bump(context.Background()))
}

func TestListenForInvalidation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int64, 1)
	require.NoError(t, cache.ListenForInvalidation(ctx, func(v int64) { got <- v }))
	_, err := cache.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))

	select {
	case v := <-got:
		assert.EqualValues(t, 2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation received")
	}
}

func TestListeningCacheRemembersVersion(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.ListenForInvalidation(ctx, nil))

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ver)

	// Changed behind the cache's back, without a notification.
	require.NoError(t, mr.Set(cacheVersionKey, "9"))
	ver, err = cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ver)

	now = now.Add(versionMemoTTL + time.Second)
	ver, err = cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, ver)
}

func TestListeningCacheFollowsOtherProcesses(t *testing.T) {
	server, mr := newTestCache(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	worker := NewCache(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan int64, 1)
	require.NoError(t, server.ListenForInvalidation(ctx, func(v int64) { got <- v }))

	ver, err := server.Version(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, ver)

	require.NoError(t, worker.Bump(ctx))
	select {
	case v := <-got:
		assert.EqualValues(t, 2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation received")
	}

	key, err := server.BuildKey(ctx, "counts")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:counts:2", key)
}
