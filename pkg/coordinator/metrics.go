package coordinator

// Metrics receives observability callbacks from a Coordinator. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// Hit records a fetch served from cache.
	Hit()
	// Miss records a fetch that went to the network.
	Miss()
	// Retry records one retried network attempt.
	Retry()
	// FetchSuccess records a network fetch that produced data.
	FetchSuccess()
	// FetchError records a fetch sequence that failed for good.
	FetchError()
	// Evict records n entries removed by expiry or the size bound.
	Evict(n int)
	// CacheSize reports the number of resident entries after a mutation.
	CacheSize(entries int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing. It is
// the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Retry()        {}
func (NoopMetrics) FetchSuccess() {}
func (NoopMetrics) FetchError()   {}
func (NoopMetrics) Evict(int)     {}
func (NoopMetrics) CacheSize(int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
