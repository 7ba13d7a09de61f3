package redis

import (
	"context"
	"fmt"
	"time"

	"agency-contact-backend/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

// Fixed-window hit, atomic on the Redis side.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
// ARGV[2] = max hits per window
// Returns: [count, allowed (1/0), ttl_ms]
// A full window is not incremented, so the stored count never exceeds the limit.
var hitScript = goredis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if count == 0 then
    redis.call('SET', KEYS[1], 1, 'PX', window)
    return {1, 1, window}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
end
if count >= limit then
    return {count, 0, ttl}
end
count = redis.call('INCR', KEYS[1])
return {count, 1, ttl}
`)

// RateLimitStore keeps fixed-window counters in Redis so every instance
// behind a load balancer shares them.
type RateLimitStore struct {
	client    goredis.Scripter
	keyPrefix string
	limit     int
	window    time.Duration
}

func NewRateLimitStore(client goredis.Scripter, keyPrefix string, limit int, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

func (s *RateLimitStore) Hit(ctx context.Context, key string) (domain.RateLimitDecision, error) {
	result, err := hitScript.Run(ctx, s.client, []string{s.keyPrefix + key},
		s.window.Milliseconds(), s.limit).Result()
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}
	return s.parseResult(result, time.Now())
}

// Cleanup is a no-op: key TTLs expire windows on the Redis side
func (s *RateLimitStore) Cleanup(_ context.Context) (int, error) {
	return 0, nil
}

func (s *RateLimitStore) parseResult(result interface{}, now time.Time) (domain.RateLimitDecision, error) {
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 3 {
		return domain.RateLimitDecision{}, fmt.Errorf("unexpected redis result format: %v", result)
	}

	count, ok1 := arr[0].(int64)
	allowed, ok2 := arr[1].(int64)
	ttlMs, ok3 := arr[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return domain.RateLimitDecision{}, fmt.Errorf("unexpected redis result types: %v", arr)
	}

	ttl := time.Duration(ttlMs) * time.Millisecond
	remaining := s.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	d := domain.RateLimitDecision{
		Allowed:   allowed == 1,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}
