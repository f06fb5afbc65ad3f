package services

import (
	"context"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/retry"
	"distance-batch-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// Backoff names accepted by NewRetryPolicy.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// NewRetryPolicy builds the per-pair retry policy from configuration.
// Exponential backoff starts at delay, is capped at 16×delay and jittered by 20%.
func NewRetryPolicy(backoff string, maxAttempts int, delay time.Duration) (retry.Policy, error) {
	if maxAttempts < 1 {
		return retry.Policy{}, fmt.Errorf("new retry policy: max attempts must be at least 1, got %d", maxAttempts)
	}
	if delay < 0 {
		return retry.Policy{}, fmt.Errorf("new retry policy: delay must not be negative, got %s", delay)
	}

	var p retry.Policy
	switch backoff {
	case "", BackoffFixed:
		p = retry.Fixed(maxAttempts, delay)
	case BackoffExponential:
		p = retry.Exponential(maxAttempts, delay, 16*delay)
		p.Backoff = retry.WithJitter(p.Backoff, 0.2)
	default:
		return retry.Policy{}, fmt.Errorf("new retry policy: unknown backoff %q", backoff)
	}

	p.Retryable = isRetryable
	return p, nil
}

func isRetryable(err error) bool {
	return !errors.Is(err, ports.ErrInvalidAPIKey)
}

// FetchResult resolves one pair under the given retry policy.
//
// Exhausted retries are not an error: the returned Result carries Error
// sentinels. The only errors returned are ports.ErrInvalidAPIKey and the
// caller's context ending, both of which must stop the run.
func FetchResult(
	ctx context.Context,
	provider ports.DistanceProvider,
	policy retry.Policy,
	pair domain.Pair,
	onFailure func(attempt int, err error),
) (domain.Result, error) {
	custom := policy.Retryable
	policy.Retryable = func(err error) bool {
		if !isRetryable(err) {
			return false
		}
		return custom == nil || custom(err)
	}

	var res ports.DistanceResult
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := provider.GetDistance(ctx, pair.Origin, pair.Destination)
		if err != nil {
			return err
		}
		res = r
		return nil
	}, onFailure)

	if err != nil {
		if errors.Is(err, ports.ErrInvalidAPIKey) {
			return domain.Result{}, fmt.Errorf("fetch result %q -> %q: %w", pair.Origin, pair.Destination, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Result{}, fmt.Errorf("fetch result %q -> %q: %w", pair.Origin, pair.Destination, ctxErr)
		}
		return domain.FailedResult(pair, attempts), nil
	}

	return toResult(pair, res, attempts), nil
}

// Meters become km (2 decimals), seconds become minutes (1 decimal).
// An absent field is N/A; a present zero is a real zero-length route.
func toResult(pair domain.Pair, r ports.DistanceResult, attempts int) domain.Result {
	out := domain.Result{
		Origin:      pair.Origin,
		Destination: pair.Destination,
		DistanceKm:  domain.NotAvailable(),
		DurationMin: domain.NotAvailable(),
		Attempts:    attempts,
	}

	if r.DistanceMeters != nil {
		out.DistanceKm = domain.ValueOf(domain.Round(float64(*r.DistanceMeters)/1000, 2))
	}
	if r.DurationSeconds != nil {
		out.DurationMin = domain.ValueOf(domain.Round(*r.DurationSeconds/60, 1))
	}

	return out
}
