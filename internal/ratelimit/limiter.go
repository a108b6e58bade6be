// Package ratelimit enforces the trust-tiered comment quota.
package ratelimit

import (
	"context"
	"time"
)

// Window is the rolling period quotas are counted over.
const Window = 10 * time.Minute

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until the oldest counted attempt leaves the window.
	// Zero when the attempt was allowed.
	RetryAfter time.Duration
}

// Limiter counts attempts per user over Window.
type Limiter interface {
	Allow(ctx context.Context, userID uint, trust float64) (Decision, error)
}

// Quota returns how many attempts per window a user with the given trust gets.
func Quota(trust float64) int {
	switch {
	case trust < 0.5:
		return 2
	case trust < 1.0:
		return 5
	case trust < 1.5:
		return 10
	default:
		return 20
	}
}

func retryAfter(oldest, now time.Time) time.Duration {
	d := oldest.Add(Window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
