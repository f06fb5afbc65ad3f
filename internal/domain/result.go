package domain

import "time"

// Represents the resolved or failed outcome for one Pair.
// Attempts counts the requests issued for the pair, including retries.
type Result struct {
	Origin      string
	Destination string
	DistanceKm  Measure
	DurationMin Measure
	Attempts    int
}

// FailedResult marks a pair whose attempts were all exhausted.
func FailedResult(p Pair, attempts int) Result {
	return Result{
		Origin:      p.Origin,
		Destination: p.Destination,
		DistanceKm:  Failed(),
		DurationMin: Failed(),
		Attempts:    attempts,
	}
}

// Aggregate request count and derived cost estimate for one execution.
type RunStats struct {
	RequestsMade   int
	CostPerRequest float64
}

// Estimated API cost in USD for the requests made so far.
func (s RunStats) EstimatedCost() float64 {
	return float64(s.RequestsMade) * s.CostPerRequest
}

// Represents one execution of the resolver over a pasted input.
// A Run is rebuilt from scratch on every invocation; it is only kept
// beyond the call when a RunArchive stores it.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []Result
	ParseErrors []ParseError
	Stats       RunStats
	Aborted     bool
	AbortReason string
}
