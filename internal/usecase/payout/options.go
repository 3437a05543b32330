package payout

import (
	"context"
	"time"
)

type Option func(*RetryController)

func MaxRetries(n int) Option {
	return func(rc *RetryController) {
		if n > 0 {
			rc.maxRetries = n
		}
	}
}

func BackoffMultiplier(m float64) Option {
	return func(rc *RetryController) {
		if m > 0 {
			rc.multiplier = m
		}
	}
}

func BaseDelay(d time.Duration) Option {
	return func(rc *RetryController) {
		rc.baseDelay = d
	}
}

// Sleep replaces the backoff wait, tests use it to observe delays.
func Sleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(rc *RetryController) {
		rc.sleep = fn
	}
}

func Clock(fn func() time.Time) Option {
	return func(rc *RetryController) {
		rc.now = fn
	}
}
