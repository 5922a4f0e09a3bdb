package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript increments the counter and starts the window TTL on the
// first hit, returning the count and the remaining TTL in milliseconds.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore shares counters between instances through Redis
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store using client; keys are namespaced by prefix
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Increment implements Store
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Entry{}, err
	}
	if len(res) != 2 {
		return Entry{}, fmt.Errorf("unexpected script result length %d", len(res))
	}

	return Entry{
		Count:     int(res[0]),
		ResetTime: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Sweep is a no-op; Redis expires keys on its own
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
