package handlers

import (
	"context"
	"distance-batch-service/internal/adapters/export"
	"distance-batch-service/internal/api/dto"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/obs"
	"distance-batch-service/internal/ports"
	"distance-batch-service/internal/services"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	apiKeyHeader = "X-Api-Key"
	maxBodyBytes = 1 << 20
)

// ProviderFactory builds a distance provider bound to one API key.
type ProviderFactory func(apiKey string) (ports.DistanceProvider, error)

// RunHandler starts resolver runs and serves archived results.
type RunHandler struct {
	Archive       ports.RunArchive
	NewProvider   ProviderFactory
	DefaultAPIKey string
	Options       services.RunOptions
	Logger        *zap.Logger
}

// Create runs the resolver over the posted input and archives the outcome.
// A rejected API key answers 401 with whatever results were produced first.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRunRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.Logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, h.Logger, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if strings.TrimSpace(req.Input) == "" {
		writeError(w, r, h.Logger, http.StatusBadRequest, "input is required")
		return
	}

	apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader))
	if apiKey == "" {
		apiKey = h.DefaultAPIKey
	}
	if apiKey == "" {
		writeError(w, r, h.Logger, http.StatusBadRequest, "api key is required")
		return
	}

	provider, err := h.NewProvider(apiKey)
	if err != nil {
		h.Logger.Error("create provider failed", zap.Error(err))
		writeError(w, r, h.Logger, http.StatusInternalServerError, "internal server error")
		return
	}

	opts := h.Options
	reqID := obs.RequestID(r.Context())
	opts.Logger = h.Logger.With(zap.String("req_id", reqID))
	opts.Progress = func(p services.Progress) {
		opts.Logger.Info("run progress", zap.Int("done", p.Done), zap.Int("total", p.Total))
	}
	opts.AttemptFailed = func(pair domain.Pair, attempt int, err error) {
		opts.Logger.Warn("attempt failed",
			zap.String("origin", pair.Origin),
			zap.String("destination", pair.Destination),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.Policy.MaxAttempts),
			zap.Error(err),
		)
	}

	run, runErr := services.Resolve(r.Context(), req.Input, provider, opts)

	if err := h.Archive.SaveRun(context.WithoutCancel(r.Context()), run); err != nil {
		h.Logger.Error("archive run failed", zap.String("run_id", run.ID), zap.Error(err))
	}

	res := dto.NewRunResponse(run)
	switch {
	case runErr == nil:
		writeJSON(w, r, h.Logger, http.StatusOK, res)
	case errors.Is(runErr, ports.ErrInvalidAPIKey):
		res.Error = "invalid API key, please check your API key"
		writeJSON(w, r, h.Logger, http.StatusUnauthorized, res)
	default:
		writeJSON(w, r, h.Logger, http.StatusServiceUnavailable, res)
	}
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, h.Logger, http.StatusOK, dto.NewRunResponse(run))
}

// CSV serves the run's results as a download.
func (h *RunHandler) CSV(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, run.Results); err != nil {
		h.Logger.Error("write csv failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (h *RunHandler) loadRun(w http.ResponseWriter, r *http.Request) (domain.Run, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, h.Logger, http.StatusNotFound, "run not found")
		return domain.Run{}, false
	}

	run, err := h.Archive.GetRun(r.Context(), id)
	if errors.Is(err, ports.ErrRunNotFound) {
		writeError(w, r, h.Logger, http.StatusNotFound, "run not found")
		return domain.Run{}, false
	}
	if err != nil {
		h.Logger.Error("get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, r, h.Logger, http.StatusInternalServerError, "internal server error")
		return domain.Run{}, false
	}

	return run, true
}
