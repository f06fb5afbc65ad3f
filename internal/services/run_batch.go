package services

import (
	"context"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/retry"
	"distance-batch-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default USD cost of one routing request.
const DefaultCostPerRequest = 0.005

// Progress after a pair has been processed.
type Progress struct {
	Done  int
	Total int
}

func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

type RunOptions struct {
	Policy         retry.Policy
	CostPerRequest float64
	// Progress is called once after every processed pair.
	Progress func(Progress)
	// AttemptFailed observes each failed attempt, e.g. for user-visible warnings.
	AttemptFailed func(pair domain.Pair, attempt int, err error)
	Logger        *zap.Logger
	Now           func() time.Time
}

// RunBatch resolves pairs one at a time, in order.
//
// The returned Run always holds the results produced so far. When the API
// key is rejected, or ctx ends, the run stops at the current pair: that pair
// is neither recorded nor counted, the Run is marked aborted and the cause
// is returned alongside it.
func RunBatch(
	ctx context.Context,
	pairs []domain.Pair,
	provider ports.DistanceProvider,
	opts RunOptions,
) (domain.Run, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	run := domain.Run{
		ID:        uuid.NewString(),
		StartedAt: now(),
		Results:   make([]domain.Result, 0, len(pairs)),
		Stats:     domain.RunStats{CostPerRequest: opts.CostPerRequest},
	}

	if provider == nil {
		return run, errors.New("run batch: provider is nil")
	}

	total := len(pairs)
	for i, pair := range pairs {
		var onFailure func(int, error)
		if opts.AttemptFailed != nil {
			onFailure = func(attempt int, err error) { opts.AttemptFailed(pair, attempt, err) }
		}

		result, err := FetchResult(ctx, provider, opts.Policy, pair, onFailure)
		if err != nil {
			run.Aborted = true
			run.AbortReason = err.Error()
			run.FinishedAt = now()
			logger.Error("run aborted",
				zap.String("run_id", run.ID),
				zap.Int("pair", i+1),
				zap.Int("total", total),
				zap.Error(err),
			)
			return run, fmt.Errorf("run batch: pair %d of %d: %w", i+1, total, err)
		}

		run.Results = append(run.Results, result)
		run.Stats.RequestsMade++

		if opts.Progress != nil {
			opts.Progress(Progress{Done: i + 1, Total: total})
		}
	}

	run.FinishedAt = now()
	logger.Info("run completed",
		zap.String("run_id", run.ID),
		zap.Int("requests", run.Stats.RequestsMade),
		zap.Float64("estimated_cost_usd", run.Stats.EstimatedCost()),
	)

	return run, nil
}

// Resolve parses the pasted text and runs every well-formed pair.
// Parse errors are attached to the Run and never stop it.
func Resolve(
	ctx context.Context,
	text string,
	provider ports.DistanceProvider,
	opts RunOptions,
) (domain.Run, error) {
	pairs, parseErrs := ParsePairs(text)

	if opts.Logger != nil {
		for _, pe := range parseErrs {
			opts.Logger.Warn("invalid line format", zap.Int("line", pe.LineNumber), zap.String("text", pe.Line))
		}
	}

	run, err := RunBatch(ctx, pairs, provider, opts)
	run.ParseErrors = parseErrs
	return run, err
}
