// Package resilience holds the retry schedules, runtime error taxonomy, and
// the safety fallback that forces the runtime into paused instead of letting
// a degraded device keep injecting keystrokes.
package resilience

import (
	"context"
	"time"
)

// Policy is a bounded retry schedule. Backoff holds the delay before each
// retry attempt; attempts beyond the schedule reuse the final delay.
type Policy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// MicReconnect is the schedule applied when the capture device disappears
// mid-session: three attempts at 1s, 2s, and 4s.
func MicReconnect() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// NextDelay returns the wait before the next attempt given how many attempts
// already failed. ok is false once the schedule is exhausted.
func (p Policy) NextDelay(failures int) (time.Duration, bool) {
	if failures < 0 || failures >= p.MaxAttempts {
		return 0, false
	}
	if len(p.Backoff) == 0 {
		return 0, true
	}
	if failures >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1], true
	}
	return p.Backoff[failures], true
}

// Do runs fn until it succeeds, the schedule is exhausted, or the context is
// canceled. Each failure sleeps the scheduled backoff before the next
// attempt; the last error is returned when all attempts fail.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for failures := 0; ; failures++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		delay, ok := p.NextDelay(failures)
		if !ok {
			return lastErr
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
