// Package resilience provides the bounded polling loop the promoter uses
// while waiting for the hosting provider to finish an asynchronous
// deployment. The provider offers no completion signal, so the wait is a
// capped health poll with exponential backoff instead of a blind sleep.
package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlineExhausted indicates the condition never held within the
// polling deadline.
var ErrDeadlineExhausted = errors.New("resilience: polling deadline exhausted")

// PollPolicy bounds a polling loop.
type PollPolicy struct {
	// BaseDelay is the initial delay between attempts.
	BaseDelay time.Duration

	// MaxDelay caps the per-attempt delay after backoff growth.
	MaxDelay time.Duration

	// Deadline caps the total wall-clock time spent polling.
	Deadline time.Duration

	// SuccessStreak is how many consecutive successful checks are
	// required before the poll is considered settled.
	SuccessStreak int
}

// DefaultDeployPolicy is the wait policy between a push and the first
// verification pass: probe from 5s with backoff capped at 15s per
// attempt, give up after 3 minutes, and require two consecutive healthy
// rounds so a deployment mid-swap does not pass on a stale instance.
var DefaultDeployPolicy = PollPolicy{
	BaseDelay:     5 * time.Second,
	MaxDelay:      15 * time.Second,
	Deadline:      3 * time.Minute,
	SuccessStreak: 2,
}

// CalculateBackoff grows baseDelay exponentially per attempt, capped at
// maxDelay.
func CalculateBackoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	delay := baseDelay
	for range attempt {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	return delay
}

// PollUntil repeatedly evaluates check until it returns true for
// SuccessStreak consecutive attempts, the deadline passes, or the context
// is cancelled. A false check resets the streak; check errors are treated
// as a false result, not a terminal failure.
func PollUntil(ctx context.Context, policy PollPolicy, check func(ctx context.Context) (bool, error)) error {
	if policy.SuccessStreak <= 0 {
		policy.SuccessStreak = 1
	}
	deadline := time.Now().Add(policy.Deadline)

	streak := 0
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := check(ctx)
		if err == nil && ok {
			streak++
			if streak >= policy.SuccessStreak {
				return nil
			}
		} else {
			streak = 0
		}

		delay := CalculateBackoff(attempt, policy.BaseDelay, policy.MaxDelay)
		if policy.Deadline > 0 && time.Now().Add(delay).After(deadline) {
			return ErrDeadlineExhausted
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
