//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/illmade-knight/go-fetch/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisTestValue struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	store, err := cache.NewRedisStore[redisTestValue](ctx, &cache.RedisConfig{
		Addr:      addr,
		KeyPrefix: "gofetch-test:",
		TTL:       time.Minute,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Clear()
		_ = store.Close()
	})
	store.Clear()

	now := time.Now().Truncate(time.Millisecond)
	value := redisTestValue{ID: "r1", Data: []byte("payload")}

	t.Run("Set then Get round-trips an entry", func(t *testing.T) {
		store.Set("r1", cache.NewEntry(value, now, time.Minute))

		entry, ok := store.Get("r1")
		require.True(t, ok)
		assert.Equal(t, value, entry.Data)
		assert.True(t, entry.WrittenAt.Equal(now))
		assert.True(t, store.Has("r1"))
	})

	t.Run("Entries snapshots the prefix", func(t *testing.T) {
		store.Set("r2", cache.NewEntry(redisTestValue{ID: "r2"}, now, time.Minute))

		snapshot := store.Entries()
		assert.Len(t, snapshot, 2)
		assert.Contains(t, snapshot, "r1")
		assert.Contains(t, snapshot, "r2")
		assert.Equal(t, 2, store.Len())
	})

	t.Run("Delete and Clear remove entries", func(t *testing.T) {
		store.Delete("r1")
		_, ok := store.Get("r1")
		assert.False(t, ok)

		store.Clear()
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Already-expired entries lapse server-side", func(t *testing.T) {
		store.Set("lapsed", cache.Entry[redisTestValue]{
			Data:      value,
			WrittenAt: now.Add(-2 * time.Minute),
			ExpiresAt: now.Add(-time.Minute),
		})

		require.Eventually(t, func() bool {
			_, ok := store.Get("lapsed")
			return !ok
		}, 5*time.Second, 100*time.Millisecond)
	})
}
