package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newRedisLimiter(t *testing.T, clock *fakeClock) *RedisLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb).WithClock(clock.Now)
}

func TestQuota(t *testing.T) {
	assert.Equal(t, 2, Quota(0.1))
	assert.Equal(t, 2, Quota(0.49))
	assert.Equal(t, 5, Quota(0.5))
	assert.Equal(t, 5, Quota(0.99))
	assert.Equal(t, 10, Quota(1.0))
	assert.Equal(t, 10, Quota(1.49))
	assert.Equal(t, 20, Quota(1.5))
	assert.Equal(t, 20, Quota(3))
}

func TestLimiters(t *testing.T) {
	backends := map[string]func(t *testing.T, clock *fakeClock) Limiter{
		"memory": func(_ *testing.T, clock *fakeClock) Limiter { return NewMemoryLimiterWithClock(clock.Now) },
		"redis":  func(t *testing.T, clock *fakeClock) Limiter { return newRedisLimiter(t, clock) },
	}

	for name, build := range backends {
		t.Run(name+"/rejects attempt over quota", func(t *testing.T) {
			clock := newClock()
			l := build(t, clock)
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				d, err := l.Allow(ctx, 1, 0.8)
				require.NoError(t, err)
				assert.True(t, d.Allowed, "attempt %d", i+1)
				assert.Equal(t, 4-i, d.Remaining)
				clock.Advance(time.Minute)
			}

			d, err := l.Allow(ctx, 1, 0.8)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, 5, d.Limit)
			// Oldest attempt was 5 minutes ago, so it leaves the window in 5 minutes.
			assert.Equal(t, 5*time.Minute, d.RetryAfter)
		})

		t.Run(name+"/window rolls", func(t *testing.T) {
			clock := newClock()
			l := build(t, clock)
			ctx := context.Background()

			for i := 0; i < 2; i++ {
				d, err := l.Allow(ctx, 7, 0.2)
				require.NoError(t, err)
				require.True(t, d.Allowed)
			}
			d, err := l.Allow(ctx, 7, 0.2)
			require.NoError(t, err)
			require.False(t, d.Allowed)

			clock.Advance(Window)
			d, err = l.Allow(ctx, 7, 0.2)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})

		t.Run(name+"/users are independent", func(t *testing.T) {
			clock := newClock()
			l := build(t, clock)
			ctx := context.Background()

			for i := 0; i < 2; i++ {
				_, err := l.Allow(ctx, 1, 0.1)
				require.NoError(t, err)
			}
			d, err := l.Allow(ctx, 2, 0.1)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestRedisMatchesMemory(t *testing.T) {
	clock := newClock()
	mem := NewMemoryLimiterWithClock(clock.Now)
	red := newRedisLimiter(t, clock)
	ctx := context.Background()

	steps := []time.Duration{0, 30 * time.Second, 2 * time.Minute, 10 * time.Second, 4 * time.Minute, 0, 5 * time.Minute, time.Second, 20 * time.Second}
	for i, step := range steps {
		clock.Advance(step)
		want, err := mem.Allow(ctx, 3, 0.3)
		require.NoError(t, err)
		got, err := red.Allow(ctx, 3, 0.3)
		require.NoError(t, err)
		assert.Equal(t, want, got, "step %d", i)
	}
}

func TestRedisLimiterNilClient(t *testing.T) {
	_, err := NewRedisLimiter(nil).Allow(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestMemoryLimiterReset(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiterWithClock(clock.Now)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = l.Allow(ctx, 1, 0)
	}
	l.Reset()
	d, err := l.Allow(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterForgetsIdleUsers(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiterWithClock(clock.Now)
	ctx := context.Background()

	for id := uint(1); id <= 3; id++ {
		_, err := l.Allow(ctx, id, 1.0)
		require.NoError(t, err)
	}
	assert.Len(t, l.attempts, 3)

	clock.Advance(Window + time.Second)
	_, err := l.Allow(ctx, 4, 1.0)
	require.NoError(t, err)
	assert.Len(t, l.attempts, 1)
	assert.Contains(t, l.attempts, uint(4))

	// A user who is still inside the window keeps their log.
	clock.Advance(Window / 2)
	_, err = l.Allow(ctx, 5, 1.0)
	require.NoError(t, err)
	clock.Advance(Window/2 + time.Second)
	_, err = l.Allow(ctx, 5, 1.0)
	require.NoError(t, err)
	assert.Len(t, l.attempts, 1)
	assert.Len(t, l.attempts[5], 2)
}
