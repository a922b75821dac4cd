package cache

import (
	"sort"
	"time"
)

// Store is the contract for a bounded, time-aware key→entry store.
//
// No method returns an error: unknown keys signal absence through the bool
// return, and implementations backed by remote systems must degrade failures
// to absence rather than surfacing them here. Entries whose ExpiresAt has
// passed are not removed on read; expiry is the caller's concern so that
// pure computation can reason over an explicit snapshot.
type Store[V any] interface {
	// Has reports whether key is present (expired or not).
	Has(key string) bool
	// Get retrieves the entry for key, if present.
	Get(key string) (Entry[V], bool)
	// Set stores an entry and enforces the implementation's size bound.
	Set(key string, entry Entry[V])
	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)
	// Clear removes all entries.
	Clear()
	// Len returns the number of resident entries.
	Len() int
	// Entries returns a copied snapshot of the current contents.
	Entries() map[string]Entry[V]
}

// ExpiredKeys returns the keys in snapshot whose entries are expired at now,
// in ascending key order.
func ExpiredKeys[V any](snapshot map[string]Entry[V], now time.Time) []string {
	var keys []string
	for k, e := range snapshot {
		if e.Expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// OverflowKeys returns the keys that must be evicted to bring snapshot back
// within maxEntries, oldest WrittenAt first. Entries sharing a WrittenAt are
// evicted in ascending key order so the result is deterministic.
func OverflowKeys[V any](snapshot map[string]Entry[V], maxEntries int) []string {
	if maxEntries <= 0 || len(snapshot) <= maxEntries {
		return nil
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		wi, wj := snapshot[keys[i]].WrittenAt, snapshot[keys[j]].WrittenAt
		if wi.Equal(wj) {
			return keys[i] < keys[j]
		}
		return wi.Before(wj)
	})

	return keys[:len(snapshot)-maxEntries]
}
