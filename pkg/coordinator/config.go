package coordinator

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/illmade-knight/go-fetch/pkg/fetch"
	"github.com/illmade-knight/go-fetch/pkg/retry"
)

// Config holds the coordinator-wide defaults. Every field can be overridden
// per resource at fetch time through Options.
type Config struct {
	// Timeout bounds each network attempt.
	Timeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int `env:"FETCH_MAX_RETRIES" envDefault:"3"`
	// RetryDelay is the backoff before the first retry.
	RetryDelay time.Duration `env:"FETCH_RETRY_DELAY" envDefault:"1s"`
	// RetryMultiplier grows the backoff per attempt.
	RetryMultiplier float64 `env:"FETCH_RETRY_MULTIPLIER" envDefault:"2"`
	// RetryableStatusCodes lists the HTTP statuses classified as transient.
	RetryableStatusCodes []int `env:"FETCH_RETRYABLE_STATUS_CODES" envDefault:"408,429,500,502,503,504"`
	// MaxCacheEntries bounds the shared cache.
	MaxCacheEntries int `env:"FETCH_MAX_CACHE_ENTRIES" envDefault:"1000"`
	// CacheTTL is the freshness window for cached entries.
	CacheTTL time.Duration `env:"FETCH_CACHE_TTL" envDefault:"5m"`
	// MaintenanceInterval spaces the periodic expiry sweeps. Zero disables
	// the sweep entirely.
	MaintenanceInterval time.Duration `env:"FETCH_MAINTENANCE_INTERVAL" envDefault:"1m"`
	// FanOutLimit caps the concurrency of FetchMultiple.
	FanOutLimit int `env:"FETCH_FAN_OUT_LIMIT" envDefault:"8"`
}

// DefaultConfig returns the stock configuration, matching the envDefault
// values above.
func DefaultConfig() Config {
	return Config{
		Timeout:              10 * time.Second,
		MaxRetries:           3,
		RetryDelay:           time.Second,
		RetryMultiplier:      2,
		RetryableStatusCodes: retry.DefaultRetryableStatusCodes,
		MaxCacheEntries:      1000,
		CacheTTL:             5 * time.Minute,
		MaintenanceInterval:  time.Minute,
		FanOutLimit:          8,
	}
}

// ConfigFromEnv loads configuration from environment variables, falling back
// to the defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config from env: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the coordinator cannot run with.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("maxRetries cannot be negative")
	}
	if c.RetryMultiplier <= 0 {
		return fmt.Errorf("retryMultiplier must be greater than 0")
	}
	if c.MaxCacheEntries <= 0 {
		return fmt.Errorf("maxCacheEntries must be greater than 0")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cacheTTL must be greater than 0")
	}
	if c.FanOutLimit <= 0 {
		return fmt.Errorf("fanOutLimit must be greater than 0")
	}
	return nil
}

// Options overrides the coordinator defaults for one resource. Zero-valued
// fields inherit; MaxRetries is a pointer so an explicit 0 is expressible.
// Supplying options at fetch time replaces the resource's fetcher
// configuration as a whole, it never mutates the previous one.
type Options[V any] struct {
	// Operation overrides the coordinator's source for this resource.
	Operation fetch.NetworkOp[V]
	// Timeout bounds each network attempt.
	Timeout time.Duration
	// MaxRetries overrides the retry budget.
	MaxRetries *int
	// RetryDelay overrides the base backoff.
	RetryDelay time.Duration
	// RetryMultiplier overrides the backoff growth factor.
	RetryMultiplier float64
	// RetryableStatusCodes overrides the transient status set.
	RetryableStatusCodes []int
	// CacheTTL overrides the freshness window for this resource's entries.
	CacheTTL time.Duration
}

// fetcherConfig is a resource's fully resolved fetch configuration. It is an
// immutable value: reconfiguring a resource replaces its fetcherConfig, it
// never mutates one that concurrent fetches may still be reading.
type fetcherConfig[V any] struct {
	operation fetch.NetworkOp[V]
	timeout   time.Duration
	ttl       time.Duration
	policy    retry.Policy
}

// resolve merges per-call options over the coordinator defaults.
func resolve[V any](cfg Config, opts *Options[V]) fetcherConfig[V] {
	fc := fetcherConfig[V]{
		timeout: cfg.Timeout,
		ttl:     cfg.CacheTTL,
		policy: retry.Policy{
			MaxRetries:           cfg.MaxRetries,
			BaseDelay:            cfg.RetryDelay,
			Multiplier:           cfg.RetryMultiplier,
			MinDelay:             100 * time.Millisecond,
			RetryableStatusCodes: cfg.RetryableStatusCodes,
		},
	}
	if opts == nil {
		return fc
	}

	fc.operation = opts.Operation
	if opts.Timeout > 0 {
		fc.timeout = opts.Timeout
	}
	if opts.MaxRetries != nil {
		fc.policy.MaxRetries = *opts.MaxRetries
	}
	if opts.RetryDelay > 0 {
		fc.policy.BaseDelay = opts.RetryDelay
	}
	if opts.RetryMultiplier > 0 {
		fc.policy.Multiplier = opts.RetryMultiplier
	}
	if len(opts.RetryableStatusCodes) > 0 {
		fc.policy.RetryableStatusCodes = opts.RetryableStatusCodes
	}
	if opts.CacheTTL > 0 {
		fc.ttl = opts.CacheTTL
	}
	return fc
}
