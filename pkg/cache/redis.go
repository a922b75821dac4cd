package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis-backed store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	// OpTimeout bounds each Redis round trip made by the Store methods.
	OpTimeout time.Duration
}

// RedisStore is a Store backed by Redis. Entries are JSON-encoded and carry
// the same TTL both in the entry metadata and as a server-side expiry.
//
// The Store contract is non-throwing, so Redis failures are logged and
// degraded: reads report absence, writes and deletes become no-ops. It makes
// no cross-process coherency guarantees; it is a shared entry store, not a
// distributed cache protocol.
type RedisStore[V any] struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	keyPrefix   string
	ttl         time.Duration
	opTimeout   time.Duration
}

// NewRedisStore creates and connects a new RedisStore. It pings the Redis
// server to ensure connectivity before returning.
func NewRedisStore[V any](ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore[V], error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be greater than 0")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore[V]{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
		keyPrefix:   cfg.KeyPrefix,
		ttl:         cfg.TTL,
		opTimeout:   opTimeout,
	}, nil
}

// TTL returns the freshness window configured at construction.
func (s *RedisStore[V]) TTL() time.Duration { return s.ttl }

// Has reports whether key is present in Redis.
func (s *RedisStore[V]) Has(key string) bool {
	ctx, cancel := s.opContext()
	defer cancel()

	n, err := s.redisClient.Exists(ctx, s.prefixed(key)).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Redis EXISTS failed; reporting absent.")
		return false
	}
	return n > 0
}

// Get retrieves the entry for key. Redis errors and undecodable payloads are
// logged and reported as absence.
func (s *RedisStore[V]) Get(key string) (Entry[V], bool) {
	var zero Entry[V]
	ctx, cancel := s.opContext()
	defer cancel()

	payload, err := s.redisClient.Get(ctx, s.prefixed(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error().Err(err).Str("key", key).Msg("Redis GET failed; reporting absent.")
		}
		return zero, false
	}

	var entry Entry[V]
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to unmarshal cached entry; reporting absent.")
		return zero, false
	}
	return entry, true
}

// Set stores an entry with a server-side expiry derived from the entry's own
// ExpiresAt. The server expiry makes a separate size-bound sweep unnecessary
// for most workloads; Redis reclaims stale keys on its own.
func (s *RedisStore[V]) Set(key string, entry Entry[V]) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal entry for caching.")
		return
	}

	expiry := time.Until(entry.ExpiresAt)
	if expiry <= 0 {
		expiry = time.Millisecond
	}

	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.redisClient.Set(ctx, s.prefixed(key), payload, expiry).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Redis SET failed.")
	}
}

// Delete removes a key.
func (s *RedisStore[V]) Delete(key string) {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.redisClient.Del(ctx, s.prefixed(key)).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Redis DEL failed.")
	}
}

// Clear removes every key under this store's prefix.
func (s *RedisStore[V]) Clear() {
	ctx, cancel := s.opContext()
	defer cancel()

	iter := s.redisClient.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Error().Err(err).Str("key", iter.Val()).Msg("Redis DEL failed during clear.")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Redis SCAN failed during clear.")
	}
}

// Len returns the number of keys under this store's prefix.
func (s *RedisStore[V]) Len() int {
	ctx, cancel := s.opContext()
	defer cancel()

	var n int
	iter := s.redisClient.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Redis SCAN failed during len.")
		return 0
	}
	return n
}

// Entries returns a decoded snapshot of every entry under this store's
// prefix. Undecodable entries are skipped.
func (s *RedisStore[V]) Entries() map[string]Entry[V] {
	ctx, cancel := s.opContext()
	defer cancel()

	snapshot := make(map[string]Entry[V])
	iter := s.redisClient.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.redisClient.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var entry Entry[V]
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			s.logger.Error().Err(err).Str("key", iter.Val()).Msg("Skipping undecodable entry in snapshot.")
			continue
		}
		snapshot[iter.Val()[len(s.keyPrefix):]] = entry
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Redis SCAN failed during snapshot.")
	}
	return snapshot
}

// Close closes the Redis client connection.
func (s *RedisStore[V]) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}

func (s *RedisStore[V]) prefixed(key string) string {
	return s.keyPrefix + key
}

func (s *RedisStore[V]) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

// Compile-time check: RedisStore implements Store.
var _ Store[any] = (*RedisStore[any])(nil)
