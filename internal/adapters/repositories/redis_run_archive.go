package repositories

import (
	"context"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/obs"
	"distance-batch-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const runKeyPrefix = "distances:run:"

// Redis-backed implementation of the RunArchive port.
// Each run is one JSON value that expires after TTL; a zero TTL keeps it forever.
type RedisRunArchive struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewRedisRunArchive(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRunArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRunArchive{Client: client, TTL: ttl, Logger: logger}
}

type runRecord struct {
	ID             string             `json:"id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Results        []resultRecord     `json:"results"`
	ParseErrors    []parseErrorRecord `json:"parse_errors,omitempty"`
	RequestsMade   int                `json:"requests_made"`
	CostPerRequest float64            `json:"cost_per_request"`
	Aborted        bool               `json:"aborted"`
	AbortReason    string             `json:"abort_reason,omitempty"`
}

type resultRecord struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	DistanceKm  domain.Measure `json:"distance_km"`
	DurationMin domain.Measure `json:"duration_min"`
	Attempts    int            `json:"attempts"`
}

type parseErrorRecord struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Reason     string `json:"reason"`
}

func runKey(id string) string { return runKeyPrefix + id }

func (s *RedisRunArchive) SaveRun(ctx context.Context, run domain.Run) (err error) {
	defer obs.Time(ctx, s.Logger, "archive.SaveRun")(&err)

	if s.Client == nil {
		return errors.New("run archive: redis client is nil")
	}
	if run.ID == "" {
		return errors.New("save run: id must not be empty")
	}

	rec := runRecord{
		ID:             run.ID,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		Results:        make([]resultRecord, 0, len(run.Results)),
		RequestsMade:   run.Stats.RequestsMade,
		CostPerRequest: run.Stats.CostPerRequest,
		Aborted:        run.Aborted,
		AbortReason:    run.AbortReason,
	}
	for _, r := range run.Results {
		rec.Results = append(rec.Results, resultRecord(r))
	}
	for _, pe := range run.ParseErrors {
		rec.ParseErrors = append(rec.ParseErrors, parseErrorRecord(pe))
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save run %q: encode: %w", run.ID, err)
	}

	if err := s.Client.Set(ctx, runKey(run.ID), b, s.TTL).Err(); err != nil {
		return fmt.Errorf("save run %q: redis set: %w", run.ID, err)
	}

	return nil
}

func (s *RedisRunArchive) GetRun(ctx context.Context, id string) (_ domain.Run, err error) {
	defer obs.Time(ctx, s.Logger, "archive.GetRun", ports.ErrRunNotFound)(&err)

	if s.Client == nil {
		return domain.Run{}, errors.New("run archive: redis client is nil")
	}

	b, err := s.Client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Run{}, fmt.Errorf("get run %q: %w", id, ports.ErrRunNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("get run %q: redis get: %w", id, err)
	}

	var rec runRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.Run{}, fmt.Errorf("get run %q: decode: %w", id, err)
	}

	run := domain.Run{
		ID:          rec.ID,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
		Results:     make([]domain.Result, 0, len(rec.Results)),
		Stats:       domain.RunStats{RequestsMade: rec.RequestsMade, CostPerRequest: rec.CostPerRequest},
		Aborted:     rec.Aborted,
		AbortReason: rec.AbortReason,
	}
	for _, r := range rec.Results {
		run.Results = append(run.Results, domain.Result(r))
	}
	for _, pe := range rec.ParseErrors {
		run.ParseErrors = append(run.ParseErrors, domain.ParseError(pe))
	}

	return run, nil
}
