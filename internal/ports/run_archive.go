package ports

import (
	"context"
	"distance-batch-service/internal/domain"
	"errors"
)

var ErrRunNotFound = errors.New("run not found")

// Port: a boundary for keeping finished runs so their results can be fetched again.
type RunArchive interface {
	SaveRun(ctx context.Context, run domain.Run) error
	GetRun(ctx context.Context, id string) (domain.Run, error)
}
