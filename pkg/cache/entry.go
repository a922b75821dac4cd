package cache

import "time"

// Entry is an immutable cached value with its write and expiry times.
// An "update" produces a new Entry with a refreshed WrittenAt rather than
// mutating in place.
type Entry[V any] struct {
	Data      V         `json:"data"`
	WrittenAt time.Time `json:"written_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry builds an entry written at now that expires at now + ttl.
func NewEntry[V any](data V, now time.Time, ttl time.Duration) Entry[V] {
	return Entry[V]{
		Data:      data,
		WrittenAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry is logically expired at now.
// An entry whose ExpiresAt equals now is already expired.
func (e Entry[V]) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// OpKind discriminates the intended mutations an Op can describe.
type OpKind int

const (
	// OpSet inserts a freshly fetched entry.
	OpSet OpKind = iota
	// OpUpdate replaces an existing entry with a refreshed one.
	OpUpdate
	// OpDelete removes an entry (expiry or size eviction).
	OpDelete
)

// String returns a stable label for the op kind.
func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op describes an intended cache mutation. It never mutates anything itself;
// applying ops to a live store is the effect applier's job.
type Op[V any] struct {
	Kind  OpKind
	Key   string
	Entry Entry[V]
}
