package distance

import (
	"context"
	"distance-batch-service/internal/ports"
	"fmt"
	"sync"
)

// MockPair scripts the answer for one origin/destination.
// Err, when set, is returned on every call; FailFirst fails only the first n calls.
type MockPair struct {
	From, To  string
	Meters    int
	Seconds   int
	Err       error
	FailFirst int
}

type MockDistanceProvider struct {
	mu    sync.Mutex
	m     map[string]MockPair
	calls []string
	seen  map[string]int
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]MockPair, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = p
	}
	return &MockDistanceProvider{m: m, seen: make(map[string]int)}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination string) (ports.DistanceResult, error) {
	key := origin + "|" + destination

	p.mu.Lock()
	p.calls = append(p.calls, key)
	p.seen[key]++
	n := p.seen[key]
	pair, ok := p.m[key]
	p.mu.Unlock()

	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin, destination)
	}
	if pair.Err != nil {
		return ports.DistanceResult{}, pair.Err
	}
	if n <= pair.FailFirst {
		return ports.DistanceResult{}, fmt.Errorf("scripted failure %d for %q -> %q", n, origin, destination)
	}

	meters, seconds := pair.Meters, float64(pair.Seconds)
	return ports.DistanceResult{DistanceMeters: &meters, DurationSeconds: &seconds}, nil
}

// Calls returns every "origin|destination" key requested, in order.
func (p *MockDistanceProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}
