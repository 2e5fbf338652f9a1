package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(deadline time.Duration, streak int) PollPolicy {
	return PollPolicy{
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		Deadline:      deadline,
		SuccessStreak: streak,
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 5 * time.Second
	max := 15 * time.Second

	if got := CalculateBackoff(0, base, max); got != 5*time.Second {
		t.Errorf("attempt 0 = %v", got)
	}
	if got := CalculateBackoff(1, base, max); got != 10*time.Second {
		t.Errorf("attempt 1 = %v", got)
	}
	// Growth is capped, never exceeds MaxDelay.
	if got := CalculateBackoff(5, base, max); got != max {
		t.Errorf("attempt 5 = %v, want cap %v", got, max)
	}
}

func TestPollUntil(t *testing.T) {
	ctx := context.Background()

	t.Run("requires_consecutive_successes", func(t *testing.T) {
		// Pattern: ok, fail, ok, ok. The streak resets on failure.
		results := []bool{true, false, true, true}
		calls := 0
		err := PollUntil(ctx, fastPolicy(time.Second, 2), func(context.Context) (bool, error) {
			ok := results[calls]
			calls++
			return ok, nil
		})
		if err != nil {
			t.Fatalf("PollUntil error: %v", err)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
	})

	t.Run("deadline_exhausted", func(t *testing.T) {
		err := PollUntil(ctx, fastPolicy(10*time.Millisecond, 1), func(context.Context) (bool, error) {
			return false, nil
		})
		if !errors.Is(err, ErrDeadlineExhausted) {
			t.Errorf("error = %v, want ErrDeadlineExhausted", err)
		}
	})

	t.Run("check_error_resets_streak", func(t *testing.T) {
		results := []error{errors.New("probe down"), nil, nil}
		calls := 0
		err := PollUntil(ctx, fastPolicy(time.Second, 2), func(context.Context) (bool, error) {
			e := results[calls]
			calls++
			return true, e
		})
		if err != nil {
			t.Fatalf("PollUntil error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := PollUntil(cctx, fastPolicy(time.Second, 1), func(context.Context) (bool, error) {
			return false, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
