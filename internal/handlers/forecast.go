package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bluele/gcache"
	"github.com/go-chi/chi/v5"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/forecast"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/metrics"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

// Planner defines the planning operations the forecast endpoints need
type Planner interface {
	Static(day time.Weekday) (planner.Plan, error)
	PlanDay(ctx context.Context, lineID string, day time.Weekday, observedYesterday []float64) (planner.Plan, error)
	Multiplier(ctx context.Context, lineID string) ([]float64, bool, error)
	Reset(ctx context.Context, lineID string) error
	Runs(ctx context.Context, limit int) ([]planner.Run, error)
}

// ForecastHandler handles HTTP requests for daily demand forecasts
type ForecastHandler struct {
	planner Planner
	static  gcache.Cache
}

// NewForecastHandler creates a handler; static forecasts are cached per
// weekday in an LRU of cacheSize entries.
func NewForecastHandler(p Planner, cacheSize int) *ForecastHandler {
	if cacheSize < 1 {
		cacheSize = 1
	}
	h := &ForecastHandler{planner: p}
	h.static = gcache.New(cacheSize).
		LRU().
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return p.Static(key.(time.Weekday))
		}).
		Build()
	return h
}

// ForecastRequest is the body of POST /api/forecast/{day}
type ForecastRequest struct {
	LineID        string    `json:"lineId"`
	Yesterday     []float64 `json:"yesterday"`
	YesterdayText string    `json:"yesterdayText"` // comma-separated, or "n/a"
}

// MultiplierResponse is the JSON response for GET /api/lines/{lineId}/multiplier
type MultiplierResponse struct {
	LineID     string    `json:"lineId"`
	Multiplier []float64 `json:"multiplier"`
	Stored     bool      `json:"stored"`
}

// RunsResponse is the JSON response for GET /api/forecast/runs
type RunsResponse struct {
	Runs  []planner.Run `json:"runs"`
	Count int           `json:"count"`
}

// GetStaticForecast handles GET /api/forecast/{day}
// Returns the forecast from the static multiplier, with no learning applied
func (h *ForecastHandler) GetStaticForecast(w http.ResponseWriter, r *http.Request) {
	day, err := forecast.ParseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, "Invalid day of week", err)
		return
	}

	cached, err := h.static.Get(day)
	if err != nil {
		writeError(w, "Failed to compute forecast", err)
		return
	}
	plan := cached.(planner.Plan)
	metrics.RecordEstimate("forecast", plan.Estimate)

	// Static forecasts only change with a redeploy.
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, plan)
}

// PlanDay handles POST /api/forecast/{day}
// Folds yesterday's observed demand into the line's stored multiplier and
// returns the adapted forecast with its capacity estimate
func (h *ForecastHandler) PlanDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	day, err := forecast.ParseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, "Invalid day of week", err)
		return
	}

	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	}
	if req.LineID == "" {
		req.LineID = planner.DefaultLineID
	}

	observed, err := profileFrom(req.Yesterday, req.YesterdayText)
	if err != nil {
		writeError(w, "Invalid yesterday demands", err)
		return
	}

	plan, err := h.planner.PlanDay(ctx, req.LineID, day, observed)
	if err != nil {
		log.Printf("Forecast: plan for %s on %s failed: %v", req.LineID, day, err)
		writeError(w, "Failed to plan day", err)
		return
	}
	metrics.RecordForecast(plan.Forecast.Adapted)
	metrics.RecordEstimate("forecast", plan.Estimate)

	writeJSON(w, http.StatusOK, plan)
}

// GetRuns handles GET /api/forecast/runs
// Query params: limit (optional, default 20, max 500)
func (h *ForecastHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.planner.Runs(ctx, limit)
	if err != nil {
		writeError(w, "Failed to list forecast runs", err)
		return
	}
	if runs == nil {
		runs = []planner.Run{}
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

// GetMultiplier handles GET /api/lines/{lineId}/multiplier
func (h *ForecastHandler) GetMultiplier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lineID := chi.URLParam(r, "lineId")
	m, stored, err := h.planner.Multiplier(ctx, lineID)
	if err != nil {
		writeError(w, "Failed to load multiplier", err)
		return
	}

	writeJSON(w, http.StatusOK, MultiplierResponse{LineID: lineID, Multiplier: m, Stored: stored})
}

// ResetMultiplier handles DELETE /api/lines/{lineId}/multiplier
func (h *ForecastHandler) ResetMultiplier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lineID := chi.URLParam(r, "lineId")
	if err := h.planner.Reset(ctx, lineID); err != nil {
		writeError(w, "Failed to reset multiplier", err)
		return
	}
	log.Printf("Forecast: multiplier for %s reset to static", lineID)

	w.WriteHeader(http.StatusNoContent)
}
