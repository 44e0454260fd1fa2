package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
)

// Backoff is a capped exponential retry policy. The first retry waits Base,
// each following retry waits twice as long, never more than Max.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	Retries int // retries after the first attempt
}

// RetryEvent describes a retry about to wait.
type RetryEvent struct {
	Attempt int // the attempt that failed, from 1
	Delay   time.Duration
	Err     error
}

// Delay returns the wait before retry n, counting from 1.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Do calls op until it succeeds, fails with an error not marked Transient, or
// the retry budget is spent. onRetry, if set, is called once the wait before
// the next attempt has been scheduled on clock. Do returns the number of
// attempts made.
func (b Backoff) Do(ctx context.Context, clock quartz.Clock, op func(ctx context.Context, attempt int) error, onRetry func(RetryEvent)) (int, error) {
	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if !IsTransient(err) {
			return attempt, err
		}
		if attempt > b.Retries {
			return attempt, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}

		ev := RetryEvent{Attempt: attempt, Delay: b.Delay(attempt), Err: err}
		armed := func() {
			if onRetry != nil {
				onRetry(ev)
			}
		}
		if err := Sleep(ctx, clock, ev.Delay, armed); err != nil {
			return attempt, err
		}
	}
}

// Sleep waits d on clock or until ctx is done. armed, if set, runs after the
// timer exists and before waiting on it.
func Sleep(ctx context.Context, clock quartz.Clock, d time.Duration, armed func()) error {
	t := clock.NewTimer(d, "agent", "sleep")
	defer t.Stop()
	if armed != nil {
		armed()
	}
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FormatDelay renders a delay for progress messages, e.g. "2s" or "1.5s".
func FormatDelay(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
