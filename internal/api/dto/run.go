package dto

import (
	"distance-batch-service/internal/domain"
	"time"
)

type CreateRunRequest struct {
	Input string `json:"input"`
}

type ResultResponse struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	DistanceKm  domain.Measure `json:"distance_km"`
	DurationMin domain.Measure `json:"duration_min"`
	Attempts    int            `json:"attempts"`
}

type ParseErrorResponse struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Reason     string `json:"reason"`
}

type StatsResponse struct {
	RequestsMade  int     `json:"requests_made"`
	EstimatedCost float64 `json:"estimated_cost"`
}

type RunResponse struct {
	ID          string               `json:"id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Results     []ResultResponse     `json:"results"`
	ParseErrors []ParseErrorResponse `json:"parse_errors"`
	Stats       StatsResponse        `json:"stats"`
	Aborted     bool                 `json:"aborted"`
	Error       string               `json:"error,omitempty"`
}

func NewRunResponse(run domain.Run) RunResponse {
	res := RunResponse{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Results:     make([]ResultResponse, 0, len(run.Results)),
		ParseErrors: make([]ParseErrorResponse, 0, len(run.ParseErrors)),
		Stats: StatsResponse{
			RequestsMade:  run.Stats.RequestsMade,
			EstimatedCost: run.Stats.EstimatedCost(),
		},
		Aborted: run.Aborted,
		Error:   run.AbortReason,
	}

	for _, r := range run.Results {
		res.Results = append(res.Results, ResultResponse{
			Origin:      r.Origin,
			Destination: r.Destination,
			DistanceKm:  r.DistanceKm,
			DurationMin: r.DurationMin,
			Attempts:    r.Attempts,
		})
	}
	for _, pe := range run.ParseErrors {
		res.ParseErrors = append(res.ParseErrors, ParseErrorResponse{
			LineNumber: pe.LineNumber,
			Line:       pe.Line,
			Reason:     pe.Reason,
		})
	}

	return res
}
