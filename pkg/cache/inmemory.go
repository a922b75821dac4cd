package cache

import (
	"fmt"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe, in-memory Store with a fixed entry bound
// and an oldest-write eviction policy.
type InMemoryStore[V any] struct {
	maxEntries int
	ttl        time.Duration

	mu   sync.RWMutex
	data map[string]Entry[V]
}

// NewInMemoryStore creates a bounded in-memory store.
// - maxEntries: the maximum number of entries to retain. Must be > 0.
// - ttl: the freshness window stamped onto entries written through this store.
func NewInMemoryStore[V any](maxEntries int, ttl time.Duration) (*InMemoryStore[V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be greater than 0")
	}
	return &InMemoryStore[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		data:       make(map[string]Entry[V]),
	}, nil
}

// TTL returns the freshness window configured at construction.
func (s *InMemoryStore[V]) TTL() time.Duration { return s.ttl }

// MaxEntries returns the size bound configured at construction.
func (s *InMemoryStore[V]) MaxEntries() int { return s.maxEntries }

// Has reports whether key is present, expired or not.
func (s *InMemoryStore[V]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Get retrieves the entry for key, if present. Expired entries are still
// returned; callers decide what expiry means for them.
func (s *InMemoryStore[V]) Get(key string) (Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[key]
	return entry, ok
}

// Set stores an entry and then enforces the size bound: if the store has
// grown past maxEntries, the entries with the oldest WrittenAt are deleted
// (ties broken by ascending key).
func (s *InMemoryStore[V]) Set(key string, entry Entry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry

	if len(s.data) > s.maxEntries {
		for _, k := range OverflowKeys(s.data, s.maxEntries) {
			delete(s.data, k)
		}
	}
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *InMemoryStore[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Clear removes all entries.
func (s *InMemoryStore[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Entry[V])
}

// Len returns the number of resident entries, expired or not.
func (s *InMemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Entries returns a copied snapshot of the current contents. The copy is
// safe to read and transform without further locking.
func (s *InMemoryStore[V]) Entries() map[string]Entry[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]Entry[V], len(s.data))
	for k, v := range s.data {
		snapshot[k] = v
	}
	return snapshot
}

// Compile-time check: InMemoryStore implements Store.
var _ Store[any] = (*InMemoryStore[any])(nil)
