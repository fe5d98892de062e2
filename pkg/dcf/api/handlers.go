package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/config"
	"github.com/stex99/dcf-tool/pkg/dcf/pipeline"
	"github.com/stex99/dcf-tool/pkg/dcf/render"
	"github.com/stex99/dcf-tool/pkg/dcf/store"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

// RunStore is the read side of the run archive.
type RunStore interface {
	Ping(ctx context.Context) error
	ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error)
	GetRun(ctx context.Context, runID string) (*store.RunInfo, error)
	Results(ctx context.Context, runID string) ([]types.HoldingResult, error)
}

type handler struct {
	analyzer *pipeline.Analyzer
	runs     RunStore
	cfg      *config.Config
	log      *zap.SugaredLogger
}

// ValuationRequest is the body of POST /api/valuation. Rates and tolerance
// are percentages; omitted fields take the configured defaults.
type ValuationRequest struct {
	Holdings        []HoldingRequest `json:"holdings"`
	DiscountRate    *float64         `json:"discount_rate"`
	GrowthRate      *float64         `json:"growth_rate"`
	ProjectionYears *int             `json:"projection_years"`
	Tolerance       *float64         `json:"tolerance"`
}

type HoldingRequest struct {
	Identifier string  `json:"identifier"`
	Shares     float64 `json:"shares"`
}

// RunResponse describes an archived run.
type RunResponse struct {
	ID                  string           `json:"id"`
	CreatedAt           time.Time        `json:"created_at"`
	Parameters          valuation.Params `json:"parameters"`
	Tolerance           float64          `json:"tolerance"`
	TotalEstimatedValue float64          `json:"total_estimated_value"`
	Holdings            int              `json:"holdings"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondJSON(w, h.log, http.StatusOK, map[string]string{"status": "healthy", "archive": "disabled"})
		return
	}
	if err := h.runs.Ping(r.Context()); err != nil {
		respondJSON(w, h.log, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"archive": "disconnected",
			"error":   err.Error(),
		})
		return
	}
	respondJSON(w, h.log, http.StatusOK, map[string]string{"status": "healthy", "archive": "connected"})
}

func (h *handler) valuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	opts := h.options(req)
	hs := make([]types.Holding, len(req.Holdings))
	for i, rh := range req.Holdings {
		hs[i] = types.Holding{Identifier: rh.Identifier, Shares: rh.Shares}
	}

	res, err := h.analyzer.Analyze(r.Context(), hs, opts)
	switch {
	case errors.Is(err, apperrors.ErrInvalidParameters):
		respondError(w, h.log, http.StatusBadRequest, "invalid valuation parameters", err.Error())
		return
	case errors.Is(err, apperrors.ErrMalformedInput):
		respondError(w, h.log, http.StatusBadRequest, "malformed holdings", err.Error())
		return
	case err != nil:
		h.log.Errorw("valuation failed", "error", err)
		respondError(w, h.log, http.StatusInternalServerError, "valuation failed", err.Error())
		return
	}

	respondJSON(w, h.log, http.StatusOK, render.NewJSONReport(res.Report(), true))
}

func (h *handler) options(req ValuationRequest) pipeline.Options {
	discount, growth, years, tol := h.cfg.DiscountRate, h.cfg.GrowthRate, h.cfg.ProjectionYears, h.cfg.Tolerance
	if req.DiscountRate != nil {
		discount = *req.DiscountRate
	}
	if req.GrowthRate != nil {
		growth = *req.GrowthRate
	}
	if req.ProjectionYears != nil {
		years = *req.ProjectionYears
	}
	if req.Tolerance != nil {
		tol = *req.Tolerance
	}
	return pipeline.Options{
		Params:    valuation.FromPercent(discount, growth, years),
		Tolerance: tol / 100,
	}
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, h.log, http.StatusBadRequest, "invalid limit", s)
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Errorw("failed to list runs", "error", err)
		respondError(w, h.log, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, ri := range runs {
		out = append(out, runResponse(ri))
	}
	respondJSON(w, h.log, http.StatusOK, out)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	ri, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, apperrors.ErrRunNotFound) {
		respondError(w, h.log, http.StatusNotFound, "run not found", runID)
		return
	}
	if err != nil {
		h.log.Errorw("failed to load run", "run_id", runID, "error", err)
		respondError(w, h.log, http.StatusInternalServerError, "failed to load run", err.Error())
		return
	}
	results, err := h.runs.Results(r.Context(), runID)
	if err != nil {
		h.log.Errorw("failed to load run results", "run_id", runID, "error", err)
		respondError(w, h.log, http.StatusInternalServerError, "failed to load run", err.Error())
		return
	}

	respondJSON(w, h.log, http.StatusOK, render.NewJSONReport(render.Report{
		RunID:     ri.ID,
		Params:    ri.Params,
		Tolerance: ri.Tolerance,
		Summary:   types.Summary{Results: results, TotalEstimatedValue: ri.Total},
	}, false))
}

func runResponse(ri store.RunInfo) RunResponse {
	return RunResponse{
		ID:                  ri.ID,
		CreatedAt:           ri.CreatedAt,
		Parameters:          ri.Params,
		Tolerance:           ri.Tolerance,
		TotalEstimatedValue: ri.Total,
		Holdings:            ri.Holdings,
	}
}
