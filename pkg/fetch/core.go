// Package fetch contains the pure fetch computation and the applier that
// turns its described effects into real ones.
//
// Compute never mutates a live store and never notifies observers directly;
// it works over an explicit cache snapshot and a fixed clock value and
// returns a Result describing everything that should happen. Apply is the
// single place those effects are carried out.
package fetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-fetch/pkg/cache"
	"github.com/illmade-knight/go-fetch/pkg/retry"
)

// NetworkOp performs the underlying network call and returns parsed response
// data. Errors must carry enough information for retry.Policy.IsRetryable to
// classify them (an HTTP status, a net.Error, or one of the retry package's
// typed errors).
type NetworkOp[V any] func(ctx context.Context) (V, error)

// SleepFunc suspends between retry attempts. It returns early with ctx.Err()
// if the context is done first. Injectable so tests run without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// CoreConfig parameterises a single fetch computation.
type CoreConfig struct {
	// TTL is the freshness window stamped onto entries this computation writes.
	TTL time.Duration
	// MaxEntries bounds the resulting cache state; overflow is evicted
	// oldest-write first.
	MaxEntries int
	// Timeout bounds each network attempt. Zero means no per-attempt bound.
	Timeout time.Duration
	// Policy drives retry classification and backoff.
	Policy retry.Policy
	// Sleep suspends between attempts. Nil means a real timer.
	Sleep SleepFunc
}

// Compute is the pure fetch core. Given a cache snapshot, a resource ID, a
// clock value, and a network operation, it decides what should happen:
//
//  1. Entries expired at now are dropped from a cleaned copy of the snapshot
//     (the snapshot itself is never modified).
//  2. If the cleaned snapshot holds the resource, the result is a silent
//     cache hit: no events, one update op refreshing the entry's write time.
//  3. Otherwise the network operation runs under the retry policy. Success
//     yields one set op plus delete ops for expired and size-evicted keys;
//     exhausted retries or a terminal error yield a failed result with no
//     cache ops at all.
//
// For fixed inputs and a deterministic op, two invocations produce
// structurally equal results (same success, data, op shapes); only request
// IDs and jittered delay values differ.
func Compute[V any](
	ctx context.Context,
	snapshot map[string]cache.Entry[V],
	resourceID string,
	now time.Time,
	op NetworkOp[V],
	cfg CoreConfig,
) Result[V] {
	requestID := uuid.NewString()

	expired := cache.ExpiredKeys(snapshot, now)
	cleaned := make(map[string]cache.Entry[V], len(snapshot))
	for k, e := range snapshot {
		if !e.Expired(now) {
			cleaned[k] = e
		}
	}

	// Cache hit: silent, and the entry's write time is refreshed so the
	// size-eviction order tracks use.
	if entry, ok := cleaned[resourceID]; ok {
		refreshed := cache.NewEntry(entry.Data, now, cfg.TTL)
		newState := cloneState(cleaned)
		newState[resourceID] = refreshed

		return Result[V]{
			Success:   true,
			Data:      entry.Data,
			FromCache: true,
			Ops:       []cache.Op[V]{{Kind: cache.OpUpdate, Key: resourceID, Entry: refreshed}},
			NewState:  newState,
			Meta:      Meta{RequestID: requestID},
		}
	}

	// Cache miss (or expired): go to the network under the retry loop.
	events := []Event{{Type: EventLoadingStart, Payload: LoadingStart{ResourceID: resourceID, RequestID: requestID}}}
	maxAttempts := cfg.Policy.MaxAttempts()
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var lastErr error
	attempt := 0
	for {
		data, err := runAttempt(ctx, op, cfg.Timeout)
		if err == nil {
			return successResult(resourceID, data, now, cleaned, expired, events, cfg, requestID, attempt+1)
		}
		lastErr = err

		if !cfg.Policy.IsRetryable(err) || attempt+1 >= maxAttempts {
			break
		}

		delay := cfg.Policy.Delay(attempt)
		events = append(events, Event{Type: EventRetry, Payload: Retrying{
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Err:         err,
			RetryIn:     delay,
		}})
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			lastErr = sleepErr
			break
		}
		attempt++
	}

	events = append(events, Event{Type: EventError, Payload: Failed{
		Err:         lastErr,
		Attempts:    attempt + 1,
		MaxAttempts: maxAttempts,
	}})

	// Failure never touches the cache.
	return Result[V]{
		Success:  false,
		Err:      lastErr,
		Events:   events,
		NewState: cleaned,
		Meta:     Meta{RequestID: requestID, Attempts: attempt + 1},
	}
}

// successResult builds the miss-then-success result: the new entry is
// inserted into the cleaned state and the size bound applied, all without
// touching the inputs.
func successResult[V any](
	resourceID string,
	data V,
	now time.Time,
	cleaned map[string]cache.Entry[V],
	expired []string,
	events []Event,
	cfg CoreConfig,
	requestID string,
	attempts int,
) Result[V] {
	entry := cache.NewEntry(data, now, cfg.TTL)

	newState := cloneState(cleaned)
	newState[resourceID] = entry
	evicted := cache.OverflowKeys(newState, cfg.MaxEntries)
	for _, k := range evicted {
		delete(newState, k)
	}

	// Expiry deletes come first: when the fetched resource itself expired,
	// the set must land after its delete so the fresh entry survives.
	ops := make([]cache.Op[V], 0, 1+len(expired)+len(evicted))
	for _, k := range expired {
		ops = append(ops, cache.Op[V]{Kind: cache.OpDelete, Key: k})
	}
	ops = append(ops, cache.Op[V]{Kind: cache.OpSet, Key: resourceID, Entry: entry})
	for _, k := range evicted {
		ops = append(ops, cache.Op[V]{Kind: cache.OpDelete, Key: k})
	}

	events = append(events, Event{Type: EventSuccess, Payload: Succeeded[V]{Data: data}})

	return Result[V]{
		Success:  true,
		Data:     data,
		Ops:      ops,
		Events:   events,
		NewState: newState,
		Meta:     Meta{RequestID: requestID, Attempts: attempts},
	}
}

// runAttempt executes one network attempt, bounded by the per-attempt
// timeout when one is configured. A deadline overrun surfaces as
// context.DeadlineExceeded, which the policy classifies as retryable.
func runAttempt[V any](ctx context.Context, op NetworkOp[V], timeout time.Duration) (V, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := op(attemptCtx)
	if err != nil && attemptCtx.Err() != nil {
		// Prefer the deadline error so classification does not depend on
		// how the transport wraps cancellation.
		err = attemptCtx.Err()
	}
	return data, err
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cloneState[V any](state map[string]cache.Entry[V]) map[string]cache.Entry[V] {
	clone := make(map[string]cache.Entry[V], len(state)+1)
	for k, e := range state {
		clone[k] = e
	}
	return clone
}
