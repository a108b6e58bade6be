package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding log of attempts per user in process memory.
// Counts are not shared between instances.
type MemoryLimiter struct {
	mu        sync.Mutex
	attempts  map[uint][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryLimiter creates an empty limiter using the wall clock.
func NewMemoryLimiter() *MemoryLimiter {
	return NewMemoryLimiterWithClock(time.Now)
}

// NewMemoryLimiterWithClock creates a limiter reading time from now.
func NewMemoryLimiterWithClock(now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		attempts: make(map[uint][]time.Time),
		now:      now,
	}
}

// Allow records the attempt if the user is under quota.
func (l *MemoryLimiter) Allow(_ context.Context, userID uint, trust float64) (Decision, error) {
	limit := Quota(trust)
	now := l.now()
	cutoff := now.Add(-Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= Window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	log := l.attempts[userID]
	kept := log[:0]
	for _, at := range log {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= limit {
		l.attempts[userID] = kept
		return Decision{
			Allowed:    false,
			Limit:      limit,
			RetryAfter: retryAfter(kept[0], now),
		}, nil
	}

	kept = append(kept, now)
	l.attempts[userID] = kept
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
	}, nil
}

// sweep drops users whose newest attempt has left the window. Logs are kept
// in attempt order, so the last entry is the newest.
func (l *MemoryLimiter) sweep(cutoff time.Time) {
	for userID, log := range l.attempts {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(l.attempts, userID)
		}
	}
}

// Reset forgets every recorded attempt.
func (l *MemoryLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = make(map[uint][]time.Time)
}
