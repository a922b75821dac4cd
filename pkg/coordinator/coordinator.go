// Package coordinator manages fetches across many resources: it deduplicates
// concurrent requests for the same resource, fans out multi-resource fetches,
// shares one bounded cache, and runs periodic cache maintenance.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/illmade-knight/go-fetch/pkg/cache"
	"github.com/illmade-knight/go-fetch/pkg/fetch"
	"github.com/illmade-knight/go-fetch/pkg/notify"
)

// Source fetches any resource by its ID. It is the coordinator-wide source
// of truth; a per-resource Options.Operation takes precedence over it.
type Source[V any] func(ctx context.Context, resourceID string) (V, error)

// Stats is a point-in-time snapshot of coordinator activity.
type Stats struct {
	Entries   int
	Loading   int
	Hits      uint64
	Misses    uint64
	Successes uint64
	Failures  uint64
	Retries   uint64
	Evictions uint64
}

// SettledResult is one resource's outcome from FetchMultiple.
type SettledResult[V any] struct {
	ResourceID string
	Data       V
	Err        error
}

// Option customises a Coordinator at construction.
type Option[V any] func(*Coordinator[V])

// WithClock injects the time source, for deterministic tests.
func WithClock[V any](clock func() time.Time) Option[V] {
	return func(c *Coordinator[V]) { c.clock = clock }
}

// WithMetrics attaches an observability backend.
func WithMetrics[V any](metrics Metrics) Option[V] {
	return func(c *Coordinator[V]) { c.metrics = metrics }
}

// WithSleep injects the retry-backoff sleeper, for tests that must not wait.
func WithSleep[V any](sleep fetch.SleepFunc) Option[V] {
	return func(c *Coordinator[V]) { c.sleep = sleep }
}

// Coordinator owns a shared cache and a registry of per-resource fetch
// configurations. Each resource key moves IDLE → IN_FLIGHT → IDLE; success
// and failure both return to IDLE, so the next call always starts a fresh
// attempt sequence.
type Coordinator[V any] struct {
	cfg     Config
	source  Source[V]
	store   cache.Store[V]
	logger  zerolog.Logger
	metrics Metrics
	clock   func() time.Time
	sleep   fetch.SleepFunc

	// flights coalesces concurrent fetches per resource key: at most one
	// fetch sequence is in flight per key, and every concurrent caller
	// observes that single sequence's outcome.
	flights singleflight.Group

	mu        sync.Mutex
	loading   map[string]bool
	fetchers  map[string]fetcherConfig[V]
	notifiers map[string]*notify.Notifier

	hits      atomic.Uint64
	misses    atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
	retries   atomic.Uint64
	evictions atomic.Uint64

	maintenanceStop context.CancelFunc
	wg              sync.WaitGroup
}

// New creates a Coordinator. A nil store gets a fresh in-memory store sized
// from the config. The source cannot be nil: it is the fallback for every
// resource that has no per-call Operation override.
func New[V any](
	cfg Config,
	source Source[V],
	store cache.Store[V],
	logger zerolog.Logger,
	opts ...Option[V],
) (*Coordinator[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if store == nil {
		var err error
		store, err = cache.NewInMemoryStore[V](cfg.MaxCacheEntries, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache store: %w", err)
		}
	}

	c := &Coordinator[V]{
		cfg:       cfg,
		source:    source,
		store:     store,
		logger:    logger.With().Str("component", "Coordinator").Logger(),
		metrics:   NoopMetrics{},
		clock:     time.Now,
		loading:   make(map[string]bool),
		fetchers:  make(map[string]fetcherConfig[V]),
		notifiers: make(map[string]*notify.Notifier),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.MaintenanceInterval > 0 {
		maintenanceCtx, cancel := context.WithCancel(context.Background())
		c.maintenanceStop = cancel
		c.wg.Add(1)
		go c.maintain(maintenanceCtx)
	}

	return c, nil
}

// Fetch returns the resource's data, from cache when fresh, otherwise via the
// network under the retry policy. Concurrent calls for the same resource are
// coalesced: exactly one fetch sequence runs and every caller observes its
// outcome. A caller whose context ends first gets its ctx.Err() back, but the
// in-flight sequence is never cancelled on its behalf and still settles the
// cache and the remaining callers.
func (c *Coordinator[V]) Fetch(ctx context.Context, resourceID string, opts *Options[V]) (V, error) {
	var zero V
	fc := c.fetcherFor(resourceID, opts)

	ch := c.flights.DoChan(resourceID, func() (any, error) {
		// The sequence outlives any individual caller; per-attempt timeouts
		// still apply inside the core.
		return c.runSequence(context.WithoutCancel(ctx), resourceID, fc)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// FetchMultiple fans Fetch out over all ids with settle-all semantics: one
// resource's failure never aborts the others. Concurrency is bounded by the
// configured fan-out limit.
func (c *Coordinator[V]) FetchMultiple(ctx context.Context, resourceIDs []string, opts *Options[V]) []SettledResult[V] {
	results := make([]SettledResult[V], len(resourceIDs))

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.FanOutLimit)
	for i, id := range resourceIDs {
		g.Go(func() error {
			data, err := c.Fetch(ctx, id, opts)
			results[i] = SettledResult[V]{ResourceID: id, Data: data, Err: err}
			return nil
		})
	}
	// Workers never return errors; Wait only synchronises.
	_ = g.Wait()

	return results
}

// GetCachedData returns the cached value for a resource if present and
// unexpired. It never triggers a fetch.
func (c *Coordinator[V]) GetCachedData(resourceID string) (V, bool) {
	var zero V
	entry, ok := c.store.Get(resourceID)
	if !ok || entry.Expired(c.clock()) {
		return zero, false
	}
	return entry.Data, true
}

// ClearCache removes the given resources from the cache, or everything when
// called with no arguments.
func (c *Coordinator[V]) ClearCache(resourceIDs ...string) {
	if len(resourceIDs) == 0 {
		c.store.Clear()
	} else {
		for _, id := range resourceIDs {
			c.store.Delete(id)
		}
	}
	c.metrics.CacheSize(c.store.Len())
}

// IsLoading reports whether a fetch sequence is currently in flight for the
// resource.
func (c *Coordinator[V]) IsLoading(resourceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[resourceID]
}

// Subscribe registers an observer for a resource's lifecycle events.
func (c *Coordinator[V]) Subscribe(resourceID string, observer notify.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	notifier, ok := c.notifiers[resourceID]
	if !ok {
		notifier = notify.NewNotifier()
		c.notifiers[resourceID] = notifier
	}
	notifier.Subscribe(observer)
}

// Unsubscribe removes one occurrence of the observer for a resource.
func (c *Coordinator[V]) Unsubscribe(resourceID string, observer notify.Observer) {
	c.mu.Lock()
	notifier, ok := c.notifiers[resourceID]
	c.mu.Unlock()
	if ok {
		notifier.Unsubscribe(observer)
	}
}

// GetStats returns a snapshot of coordinator activity.
func (c *Coordinator[V]) GetStats() Stats {
	c.mu.Lock()
	loading := len(c.loading)
	c.mu.Unlock()

	return Stats{
		Entries:   c.store.Len(),
		Loading:   loading,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Successes: c.successes.Load(),
		Failures:  c.failures.Load(),
		Retries:   c.retries.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Destroy stops the maintenance loop and clears all coordinator state.
// Behaviour of calls made after Destroy is not guaranteed.
func (c *Coordinator[V]) Destroy() {
	c.logger.Info().Msg("Destroying coordinator...")
	if c.maintenanceStop != nil {
		c.maintenanceStop()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.loading = make(map[string]bool)
	c.fetchers = make(map[string]fetcherConfig[V])
	for _, notifier := range c.notifiers {
		notifier.Clear()
	}
	c.notifiers = make(map[string]*notify.Notifier)
	c.mu.Unlock()

	c.store.Clear()
	c.logger.Info().Msg("Coordinator destroyed.")
}

// fetcherFor resolves the configuration governing a resource's next fetch
// sequence. Explicit options replace the registered configuration outright;
// otherwise the registered one (or a fresh default) is used.
func (c *Coordinator[V]) fetcherFor(resourceID string, opts *Options[V]) fetcherConfig[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts != nil {
		fc := resolve(c.cfg, opts)
		c.fetchers[resourceID] = fc
		return fc
	}
	if fc, ok := c.fetchers[resourceID]; ok {
		return fc
	}
	fc := resolve[V](c.cfg, nil)
	c.fetchers[resourceID] = fc
	return fc
}

// runSequence executes one full fetch sequence for a resource: snapshot,
// pure compute, then effect application against the shared store.
func (c *Coordinator[V]) runSequence(ctx context.Context, resourceID string, fc fetcherConfig[V]) (V, error) {
	c.setLoading(resourceID, true)
	defer c.setLoading(resourceID, false)

	op := fc.operation
	if op == nil {
		op = func(opCtx context.Context) (V, error) {
			return c.source(opCtx, resourceID)
		}
	}

	result := fetch.Compute(ctx, c.store.Entries(), resourceID, c.clock(), op, fetch.CoreConfig{
		TTL:        fc.ttl,
		MaxEntries: c.cfg.MaxCacheEntries,
		Timeout:    fc.timeout,
		Policy:     fc.policy,
		Sleep:      c.sleep,
	})

	fetch.Apply(result, c.store, c.notifierFor(resourceID))
	c.record(resourceID, result)

	if !result.Success {
		var zero V
		return zero, result.Err
	}
	return result.Data, nil
}

// record updates counters and metrics from a settled result.
func (c *Coordinator[V]) record(resourceID string, result fetch.Result[V]) {
	if result.FromCache {
		c.hits.Add(1)
		c.metrics.Hit()
	} else {
		c.misses.Add(1)
		c.metrics.Miss()
		if retries := result.Meta.Attempts - 1; retries > 0 {
			c.retries.Add(uint64(retries))
			for i := 0; i < retries; i++ {
				c.metrics.Retry()
			}
		}
	}

	if result.Success {
		if !result.FromCache {
			c.successes.Add(1)
			c.metrics.FetchSuccess()
		}
	} else {
		c.failures.Add(1)
		c.metrics.FetchError()
		c.logger.Debug().
			Err(result.Err).
			Str("resource_id", resourceID).
			Int("attempts", result.Meta.Attempts).
			Msg("Fetch sequence failed.")
	}

	var deletes int
	for _, op := range result.Ops {
		if op.Kind == cache.OpDelete {
			deletes++
		}
	}
	if deletes > 0 {
		c.evictions.Add(uint64(deletes))
		c.metrics.Evict(deletes)
	}
	c.metrics.CacheSize(c.store.Len())
}

func (c *Coordinator[V]) notifierFor(resourceID string) *notify.Notifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifiers[resourceID]
}

func (c *Coordinator[V]) setLoading(resourceID string, inFlight bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inFlight {
		c.loading[resourceID] = true
	} else {
		delete(c.loading, resourceID)
	}
}

// maintain periodically removes expired entries from the shared cache and
// re-enforces the size bound. It is the only scheduled activity in the
// system.
func (c *Coordinator[V]) maintain(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep deletes expired keys, then evicts oldest-write overflow.
func (c *Coordinator[V]) sweep() {
	now := c.clock()
	snapshot := c.store.Entries()

	expired := cache.ExpiredKeys(snapshot, now)
	for _, k := range expired {
		c.store.Delete(k)
		delete(snapshot, k)
	}

	overflow := cache.OverflowKeys(snapshot, c.cfg.MaxCacheEntries)
	for _, k := range overflow {
		c.store.Delete(k)
	}

	if removed := len(expired) + len(overflow); removed > 0 {
		c.evictions.Add(uint64(removed))
		c.metrics.Evict(removed)
		c.logger.Debug().
			Int("expired", len(expired)).
			Int("overflow", len(overflow)).
			Msg("Maintenance sweep removed entries.")
	}
	c.metrics.CacheSize(c.store.Len())
}
