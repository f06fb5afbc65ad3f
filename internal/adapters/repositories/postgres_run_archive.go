package repositories

import (
	"context"
	"database/sql"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/obs"
	"distance-batch-service/internal/ports"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// PostgreSQL-backed implementation of the RunArchive port.
// Measures are stored in their display form ("9.3", "N/A", "Error").
type PostgresRunArchive struct {
	DB     *sql.DB
	Logger *zap.Logger
}

func NewPostgresRunArchive(db *sql.DB, logger *zap.Logger) *PostgresRunArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRunArchive{DB: db, Logger: logger}
}

// Store a run with its results and parse errors in one transaction.
func (s *PostgresRunArchive) SaveRun(ctx context.Context, run domain.Run) (err error) {
	defer obs.Time(ctx, s.Logger, "archive.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("run archive: db is nil")
	}

	if run.ID == "" {
		return errors.New("save run: id must not be empty")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, finished_at, requests_made, cost_per_request, aborted, abort_reason)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET started_at = EXCLUDED.started_at,
		finished_at = EXCLUDED.finished_at,
		requests_made = EXCLUDED.requests_made,
		cost_per_request = EXCLUDED.cost_per_request,
		aborted = EXCLUDED.aborted,
		abort_reason = EXCLUDED.abort_reason;
	`,
		run.ID, run.StartedAt, run.FinishedAt, run.Stats.RequestsMade,
		run.Stats.CostPerRequest, run.Aborted, run.AbortReason,
	)
	if err != nil {
		return fmt.Errorf("save run %q: insert run: %w", run.ID, err)
	}

	// A re-saved run replaces its rows instead of merging with them.
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_results WHERE run_id = $1;`, run.ID); err != nil {
		return fmt.Errorf("save run %q: clear results: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_parse_errors WHERE run_id = $1;`, run.ID); err != nil {
		return fmt.Errorf("save run %q: clear parse errors: %w", run.ID, err)
	}

	resultStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_results (run_id, position, origin, destination, distance_km, duration_min, attempts)
    VALUES ($1, $2, $3, $4, $5, $6, $7);
	`)
	if err != nil {
		return fmt.Errorf("save run: prepare results: %w", err)
	}
	defer resultStmt.Close()

	for i, r := range run.Results {
		if _, err := resultStmt.ExecContext(ctx,
			run.ID, i, r.Origin, r.Destination, r.DistanceKm.String(), r.DurationMin.String(), r.Attempts,
		); err != nil {
			return fmt.Errorf("save run %q: insert result %d: %w", run.ID, i+1, err)
		}
	}

	parseStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_parse_errors (run_id, line_number, line, reason)
    VALUES ($1, $2, $3, $4);
	`)
	if err != nil {
		return fmt.Errorf("save run: prepare parse errors: %w", err)
	}
	defer parseStmt.Close()

	for _, pe := range run.ParseErrors {
		if _, err := parseStmt.ExecContext(ctx, run.ID, pe.LineNumber, pe.Line, pe.Reason); err != nil {
			return fmt.Errorf("save run %q: insert parse error line=%d: %w", run.ID, pe.LineNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run commit: %w", err)
	}

	return nil
}

// Load a run with its results in input order.
func (s *PostgresRunArchive) GetRun(ctx context.Context, id string) (_ domain.Run, err error) {
	defer obs.Time(ctx, s.Logger, "archive.GetRun", ports.ErrRunNotFound)(&err)

	if s.DB == nil {
		return domain.Run{}, errors.New("run archive: db is nil")
	}

	run := domain.Run{ID: id}
	err = s.DB.QueryRowContext(ctx, `
	SELECT started_at, finished_at, requests_made, cost_per_request, aborted, abort_reason
    FROM runs
    WHERE id = $1;
	`, id).Scan(
		&run.StartedAt, &run.FinishedAt, &run.Stats.RequestsMade,
		&run.Stats.CostPerRequest, &run.Aborted, &run.AbortReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("get run %q: %w", id, ports.ErrRunNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("get run %q: query runs table: %w", id, err)
	}

	results, err := s.listResults(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}
	run.Results = results

	parseErrs, err := s.listParseErrors(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}
	run.ParseErrors = parseErrs

	return run, nil
}

func (s *PostgresRunArchive) listResults(ctx context.Context, id string) ([]domain.Result, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT origin, destination, distance_km, duration_min, attempts
    FROM run_results
    WHERE run_id = $1
    ORDER BY position;
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get run results: query run_results table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Result, 0, 16)
	for rows.Next() {
		var r domain.Result
		var km, mins string
		if err := rows.Scan(&r.Origin, &r.Destination, &km, &mins, &r.Attempts); err != nil {
			return nil, fmt.Errorf("get run results: scan rows: %w", err)
		}

		if r.DistanceKm, err = domain.ParseMeasure(km); err != nil {
			return nil, fmt.Errorf("get run results: distance: %w", err)
		}
		if r.DurationMin, err = domain.ParseMeasure(mins); err != nil {
			return nil, fmt.Errorf("get run results: duration: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run results: row iteration: %w", err)
	}

	return out, nil
}

func (s *PostgresRunArchive) listParseErrors(ctx context.Context, id string) ([]domain.ParseError, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT line_number, line, reason
    FROM run_parse_errors
    WHERE run_id = $1
    ORDER BY line_number;
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get run parse errors: query run_parse_errors table: %w", err)
	}
	defer rows.Close()

	var out []domain.ParseError
	for rows.Next() {
		var pe domain.ParseError
		if err := rows.Scan(&pe.LineNumber, &pe.Line, &pe.Reason); err != nil {
			return nil, fmt.Errorf("get run parse errors: scan rows: %w", err)
		}
		out = append(out, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run parse errors: row iteration: %w", err)
	}

	return out, nil
}
