package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// BackoffFunc returns the wait before the next attempt, given the attempt
// that just failed (1-based).
type BackoffFunc func(attempt int) time.Duration

// Policy describes how a single unit of work is retried.
//
// MaxAttempts counts every attempt including the first. Retryable decides
// whether an error is worth another attempt; a nil Retryable retries
// everything until the caller's context is done.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(error) bool

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Fixed waits the same delay between every attempt.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return delay },
	}
}

// Exponential doubles the wait after every failed attempt, capped at limit.
// A zero limit means uncapped.
func Exponential(maxAttempts int, base, limit time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			d := base
			for i := 1; i < attempt; i++ {
				d *= 2
				if limit > 0 && d >= limit {
					return limit
				}
			}
			return d
		},
	}
}

// WithJitter spreads each wait uniformly within ±frac of the wrapped backoff.
func WithJitter(b BackoffFunc, frac float64) BackoffFunc {
	return func(attempt int) time.Duration {
		d := b(attempt)
		if d <= 0 || frac <= 0 {
			return d
		}
		delta := (rand.Float64()*2 - 1) * frac * float64(d)
		return d + time.Duration(delta)
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. onFailure, when set, observes every failed attempt.
// It returns the number of attempts made and the last error.
func (p Policy) Do(
	ctx context.Context,
	fn func(ctx context.Context, attempt int) error,
	onFailure func(attempt int, err error),
) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if onFailure != nil {
			onFailure(attempt, err)
		}

		if !p.retryable(ctx, err) {
			return attempt, err
		}

		if attempt == maxAttempts {
			break
		}

		if err := p.wait(ctx, attempt); err != nil {
			return attempt, err
		}
	}

	return maxAttempts, fmt.Errorf("retry: %d attempts exhausted: %w", maxAttempts, lastErr)
}

// A per-attempt timeout is retryable; cancellation of the caller's ctx is not.
func (p Policy) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) wait(ctx context.Context, attempt int) error {
	if p.Backoff == nil {
		return nil
	}

	d := p.Backoff(attempt)
	if d <= 0 {
		return nil
	}

	if p.sleep != nil {
		return p.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
