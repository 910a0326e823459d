package cache

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/infrastructure/config"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := store.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release allows retry", func(t *testing.T) {
		_, _ = store.Claim(ctx, "k2", time.Minute)
		require.NoError(t, store.Release(ctx, "k2"))

		ok, err := store.Claim(ctx, "k2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired keys can be claimed and are swept", func(t *testing.T) {
		_, _ = store.Claim(ctx, "k3", time.Second)
		now = now.Add(2 * time.Second)

		ok, err := store.Claim(ctx, "k3", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)

		now = now.Add(time.Hour)
		store.cleanup()
		assert.Equal(t, 0, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore(0)
		assert.NoError(t, s.Close())
		assert.NoError(t, s.Close())
	})
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Claim(context.Background(), "same", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

// Runs against a live Redis when QC_TEST_REDIS_HOST is set.
func TestRedisIdempotencyStore_Integration(t *testing.T) {
	host := os.Getenv("QC_TEST_REDIS_HOST")
	if host == "" {
		t.Skip("QC_TEST_REDIS_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("QC_TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisIdempotencyStore(client)
	key := uuid.NewString()

	ok, err := store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, key))
	ok, err = store.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, store.Release(ctx, key))
}
