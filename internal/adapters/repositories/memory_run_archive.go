package repositories

import (
	"context"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/ports"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// In-memory implementation of the RunArchive port, used when no database is configured.
// Runs live for the lifetime of the process.
type MemoryRunArchive struct {
	mu   sync.RWMutex
	runs map[string]domain.Run
}

func NewMemoryRunArchive() *MemoryRunArchive {
	return &MemoryRunArchive{runs: make(map[string]domain.Run)}
}

func (a *MemoryRunArchive) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return errors.New("save run: id must not be empty")
	}

	run.Results = slices.Clone(run.Results)
	run.ParseErrors = slices.Clone(run.ParseErrors)

	a.mu.Lock()
	a.runs[run.ID] = run
	a.mu.Unlock()

	return nil
}

func (a *MemoryRunArchive) GetRun(ctx context.Context, id string) (domain.Run, error) {
	a.mu.RLock()
	run, ok := a.runs[id]
	a.mu.RUnlock()

	if !ok {
		return domain.Run{}, fmt.Errorf("get run %q: %w", id, ports.ErrRunNotFound)
	}

	run.Results = slices.Clone(run.Results)
	run.ParseErrors = slices.Clone(run.ParseErrors)
	return run, nil
}
