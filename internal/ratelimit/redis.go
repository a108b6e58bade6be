package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLog trims the user's log to the window, then either records the
// attempt or returns the oldest attempt still counted.
var slidingLog = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, count + 1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, count, tonumber(oldest[2])}
`)

// RedisLimiter keeps the sliding log in a Redis sorted set so every instance
// shares the same counts.
type RedisLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisLimiter creates a limiter backed by rdb.
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, now: time.Now}
}

// WithClock replaces the limiter's time source.
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

func commentKey(userID uint) string {
	return fmt.Sprintf("rl:comments:user:%d", userID)
}

// Allow records the attempt if the user is under quota.
func (l *RedisLimiter) Allow(ctx context.Context, userID uint, trust float64) (Decision, error) {
	if l.rdb == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	limit := Quota(trust)
	now := l.now()

	res, err := slidingLog.Run(ctx, l.rdb,
		[]string{commentKey(userID)},
		now.UnixMilli(), Window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit - int(res[1])}, nil
	}
	return Decision{
		Allowed:    false,
		Limit:      limit,
		RetryAfter: retryAfter(time.UnixMilli(res[2]), now),
	}, nil
}
