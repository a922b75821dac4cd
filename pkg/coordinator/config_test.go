package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("Unset environment yields the defaults", func(t *testing.T) {
		cfg, err := ConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("Environment variables override the defaults", func(t *testing.T) {
		t.Setenv("FETCH_TIMEOUT", "2s")
		t.Setenv("FETCH_MAX_RETRIES", "1")
		t.Setenv("FETCH_RETRYABLE_STATUS_CODES", "500,503")
		t.Setenv("FETCH_MAX_CACHE_ENTRIES", "50")

		cfg, err := ConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
		assert.Equal(t, 1, cfg.MaxRetries)
		assert.Equal(t, []int{500, 503}, cfg.RetryableStatusCodes)
		assert.Equal(t, 50, cfg.MaxCacheEntries)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL, "unset fields keep their defaults")
	})

	t.Run("Malformed values surface as errors", func(t *testing.T) {
		t.Setenv("FETCH_TIMEOUT", "soon")
		_, err := ConfigFromEnv()
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for name, mutate := range map[string]func(*Config){
		"negative retries":   func(c *Config) { c.MaxRetries = -1 },
		"zero multiplier":    func(c *Config) { c.RetryMultiplier = 0 },
		"zero cache entries": func(c *Config) { c.MaxCacheEntries = 0 },
		"zero ttl":           func(c *Config) { c.CacheTTL = 0 },
		"zero fan-out":       func(c *Config) { c.FanOutLimit = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Nil options inherit every default", func(t *testing.T) {
		fc := resolve[string](cfg, nil)
		assert.Equal(t, cfg.Timeout, fc.timeout)
		assert.Equal(t, cfg.CacheTTL, fc.ttl)
		assert.Equal(t, cfg.MaxRetries, fc.policy.MaxRetries)
		assert.Equal(t, cfg.RetryableStatusCodes, fc.policy.RetryableStatusCodes)
		assert.Nil(t, fc.operation)
	})

	t.Run("Set fields override, zero fields inherit", func(t *testing.T) {
		noRetries := 0
		fc := resolve(cfg, &Options[string]{
			Timeout:    time.Second,
			MaxRetries: &noRetries,
			CacheTTL:   time.Hour,
		})
		assert.Equal(t, time.Second, fc.timeout)
		assert.Equal(t, 0, fc.policy.MaxRetries, "an explicit zero is honoured")
		assert.Equal(t, time.Hour, fc.ttl)
		assert.Equal(t, cfg.RetryDelay, fc.policy.BaseDelay, "unset fields inherit")
	})
}
