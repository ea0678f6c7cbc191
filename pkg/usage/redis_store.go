package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// consumeScript performs the conditional increment as one EVAL so two
// racing consumers can never jointly exceed the limit. Returns the
// resulting count and a committed flag.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if current + amount > limit then
	return {current, 0}
end
local updated = redis.call('INCRBY', KEYS[1], amount)
local ttl = tonumber(ARGV[3])
if ttl > 0 and redis.call('TTL', KEYS[1]) < 0 then
	redis.call('EXPIRE', KEYS[1], ttl)
end
return {updated, 1}
`)

// RedisStore implements Store on Redis. Counters are plain integer keys
// incremented through a Lua script; an optional TTL lets expired
// periods age out without a sweep.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "usage" key prefix, for sharing a
// Redis database between applications.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// WithCounterTTL sets a TTL applied to counters on first increment.
// Should comfortably exceed the period length (e.g. 62 days for
// monthly periods) so a counter never expires while current.
func WithCounterTTL(ttl time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed counter store.
// Panics if the client is nil to fail fast during initialization.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("usage: redis client is required")
	}

	rs := &RedisStore{
		client:    client,
		keyPrefix: "usage",
		ttl:       62 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *RedisStore) key(accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", rs.keyPrefix, accountID, metric, period)
}

func (rs *RedisStore) Get(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) (int64, error) {
	count, err := rs.client.Get(ctx, rs.key(accountID, metric, period)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return count, nil
}

func (rs *RedisStore) ConsumeIfBelow(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey, amount, limit int64) (int64, bool, error) {
	ttlSeconds := int64(rs.ttl / time.Second)

	raw, err := consumeScript.Run(ctx, rs.client,
		[]string{rs.key(accountID, metric, period)},
		amount, limit, ttlSeconds,
	).Result()
	if err != nil {
		return 0, false, errors.Join(ErrStorageFailure, err)
	}

	reply, ok := raw.([]any)
	if !ok || len(reply) != 2 {
		return 0, false, errors.Join(ErrStorageFailure, fmt.Errorf("unexpected script reply %T", raw))
	}

	count, _ := reply[0].(int64)
	committed, _ := reply[1].(int64)
	return count, committed == 1, nil
}

func (rs *RedisStore) DeletePeriodsBefore(ctx context.Context, before PeriodKey) (int64, error) {
	var removed int64

	iter := rs.client.Scan(ctx, 0, rs.keyPrefix+":*", 500).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		// Period is the last key segment: prefix:account:metric:period.
		idx := strings.LastIndexByte(key, ':')
		if idx < 0 || !PeriodKey(key[idx+1:]).Before(before) {
			continue
		}

		deleted, err := rs.client.Del(ctx, key).Result()
		if err != nil {
			return removed, errors.Join(ErrStorageFailure, err)
		}
		removed += deleted
	}
	if err := iter.Err(); err != nil {
		return removed, errors.Join(ErrStorageFailure, err)
	}

	return removed, nil
}
