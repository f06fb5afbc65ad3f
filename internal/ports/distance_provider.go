package ports

import (
	"context"
	"errors"
)

// ErrInvalidAPIKey is returned when the routing API rejects the request as
// unauthenticated. It ends the whole run rather than a single pair.
var ErrInvalidAPIKey = errors.New("routing api rejected the api key")

// Distance and travel duration between two locations.
// A nil field means the API answered without it.
type DistanceResult struct {
	DistanceMeters  *int
	DurationSeconds *float64
}

// Contract for retrieving travel distance and duration between locations.
type DistanceProvider interface {
	// Issue exactly one request for the pair; retries belong to the caller.
	GetDistance(ctx context.Context, origin string, destination string) (DistanceResult, error)
}
