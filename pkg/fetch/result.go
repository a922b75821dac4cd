package fetch

import "github.com/illmade-knight/go-fetch/pkg/cache"

// Meta carries bookkeeping about a fetch computation.
type Meta struct {
	// RequestID identifies the fetch sequence in events and logs.
	RequestID string
	// Attempts is the number of network attempts made; 0 on a cache hit.
	Attempts int
}

// Result is the output of the pure fetch computation: what happened, the
// cache mutations to apply, the events to broadcast, and the cache state the
// mutations produce. It describes effects without performing any.
//
// Invariants:
//   - FromCache implies Events is empty and Ops holds at most one update op.
//   - Success without FromCache implies exactly one set op plus zero or more
//     delete ops (expiry and size eviction).
//   - Failure implies Ops is empty: the cache is never populated from a
//     failed attempt.
type Result[V any] struct {
	Success   bool
	Data      V
	Err       error
	FromCache bool
	Ops       []cache.Op[V]
	Events    []Event
	NewState  map[string]cache.Entry[V]
	Meta      Meta
}
