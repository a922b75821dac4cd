package fetch_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-fetch/pkg/cache"
	"github.com/illmade-knight/go-fetch/pkg/fetch"
	"github.com/illmade-knight/go-fetch/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder captures notified events in order.
type eventRecorder struct {
	types []string
}

func (r *eventRecorder) Update(eventType string, _ any) {
	r.types = append(r.types, eventType)
}

func TestApply(t *testing.T) {
	now := time.UnixMilli(1_000_000)

	t.Run("Ops are applied to the live store in order", func(t *testing.T) {
		store, err := cache.NewInMemoryStore[string](10, time.Minute)
		require.NoError(t, err)
		store.Set("stale", cache.NewEntry("old", now.Add(-2*time.Minute), time.Minute))

		fresh := cache.NewEntry("new", now, time.Minute)
		result := fetch.Result[string]{
			Success: true,
			Data:    "new",
			Ops: []cache.Op[string]{
				{Kind: cache.OpDelete, Key: "stale"},
				{Kind: cache.OpSet, Key: "stale", Entry: fresh},
			},
		}

		fetch.Apply(result, store, nil)

		entry, ok := store.Get("stale")
		require.True(t, ok)
		assert.Equal(t, "new", entry.Data)
		assert.Equal(t, now, entry.WrittenAt)
	})

	t.Run("Events reach the notifier in order", func(t *testing.T) {
		store, err := cache.NewInMemoryStore[string](10, time.Minute)
		require.NoError(t, err)

		recorder := &eventRecorder{}
		notifier := notify.NewNotifier()
		notifier.Subscribe(recorder)

		result := fetch.Result[string]{
			Success: false,
			Events: []fetch.Event{
				{Type: fetch.EventLoadingStart, Payload: fetch.LoadingStart{ResourceID: "r"}},
				{Type: fetch.EventRetry, Payload: fetch.Retrying{Attempt: 0, MaxAttempts: 2}},
				{Type: fetch.EventError, Payload: fetch.Failed{Attempts: 2, MaxAttempts: 2}},
			},
		}

		fetch.Apply(result, store, notifier)

		assert.Equal(t, []string{"loading-start", "retry", "error"}, recorder.types)
	})

	t.Run("A nil notifier only applies ops", func(t *testing.T) {
		store, err := cache.NewInMemoryStore[int](10, time.Minute)
		require.NoError(t, err)

		result := fetch.Result[int]{
			Success: true,
			Ops:     []cache.Op[int]{{Kind: cache.OpSet, Key: "k", Entry: cache.NewEntry(1, now, time.Minute)}},
			Events:  []fetch.Event{{Type: fetch.EventSuccess, Payload: fetch.Succeeded[int]{Data: 1}}},
		}

		assert.NotPanics(t, func() { fetch.Apply(result, store, nil) })
		assert.True(t, store.Has("k"))
	})
}

// TestComputeThenApply ties the pure core to a live store end to end.
func TestComputeThenApply(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)

	store, err := cache.NewInMemoryStore[string](10, time.Minute)
	require.NoError(t, err)

	recorder := &eventRecorder{}
	notifier := notify.NewNotifier()
	notifier.Subscribe(recorder)

	op := func(context.Context) (string, error) { return "payload", nil }

	result := fetch.Compute(ctx, store.Entries(), "res", now, op, testConfig(1))
	fetch.Apply(result, store, notifier)

	entry, ok := store.Get("res")
	require.True(t, ok)
	assert.Equal(t, "payload", entry.Data)
	assert.Equal(t, []string{"loading-start", "success"}, recorder.types)

	// A second round over the updated store is a silent hit.
	result = fetch.Compute(ctx, store.Entries(), "res", now.Add(time.Second), op, testConfig(1))
	fetch.Apply(result, store, notifier)

	assert.True(t, result.FromCache)
	assert.Equal(t, []string{"loading-start", "success"}, recorder.types, "hits emit no events")

	refreshed, ok := store.Get("res")
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Second), refreshed.WrittenAt, "the hit refreshed the write time")
}
