// Package prom exports coordinator metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/illmade-knight/go-fetch/pkg/coordinator"
)

// Adapter implements coordinator.Metrics on Prometheus counters and gauges.
// All Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	retries   prometheus.Counter
	successes prometheus.Counter
	failures  prometheus.Counter
	evictions prometheus.Counter
	sizeEnt   prometheus.Gauge
}

// New constructs a Prometheus metrics adapter and registers its collectors.
//   - reg:         registry to register with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}

	a := &Adapter{
		hits:      counter("hits_total", "Fetches served from cache"),
		misses:    counter("misses_total", "Fetches that went to the network"),
		retries:   counter("retries_total", "Retried network attempts"),
		successes: counter("fetch_success_total", "Network fetches that produced data"),
		failures:  counter("fetch_error_total", "Fetch sequences that failed for good"),
		evictions: counter("evictions_total", "Entries removed by expiry or the size bound"),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident cache entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.retries, a.successes, a.failures, a.evictions, a.sizeEnt)
	return a
}

// Hit increments the cache-hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the cache-miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Retry increments the retry counter.
func (a *Adapter) Retry() { a.retries.Inc() }

// FetchSuccess increments the successful-fetch counter.
func (a *Adapter) FetchSuccess() { a.successes.Inc() }

// FetchError increments the failed-fetch counter.
func (a *Adapter) FetchError() { a.failures.Inc() }

// Evict adds n to the eviction counter.
func (a *Adapter) Evict(n int) { a.evictions.Add(float64(n)) }

// CacheSize updates the resident-entries gauge.
func (a *Adapter) CacheSize(entries int) { a.sizeEnt.Set(float64(entries)) }

// Compile-time check: ensure Adapter implements coordinator.Metrics.
var _ coordinator.Metrics = (*Adapter)(nil)
