// Package retry runs flaky operations under a fixed-delay retry policy.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation up to MaxAttempts times, waiting Delay between
// attempts. The zero value runs the operation exactly once.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
	// After runs after every attempt, successful or not.
	After func()
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fixed returns a policy with the given attempt count and delay.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: delay}
}

// Do runs fn until it succeeds or the attempts are exhausted, returning the
// last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if p.After != nil {
			p.After()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts || ctx.Err() != nil {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, p.Delay, err)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
