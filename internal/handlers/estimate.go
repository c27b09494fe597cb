package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/metrics"
)

// EstimateHandler handles capacity estimates for caller-supplied profiles
type EstimateHandler struct {
	defaults capacity.LineParams
}

// NewEstimateHandler creates a handler that fills missing parameters from
// defaults
func NewEstimateHandler(defaults capacity.LineParams) *EstimateHandler {
	return &EstimateHandler{defaults: defaults}
}

// EstimateRequest is the body of POST /api/estimate. Either Demands or
// DemandsText must be given; Params fields override the defaults one by one.
type EstimateRequest struct {
	Demands     []float64            `json:"demands"`
	DemandsText string               `json:"demandsText"`
	Params      *capacity.LineParams `json:"params"`
}

// EstimateResponse is the JSON response for POST /api/estimate
type EstimateResponse struct {
	Stations int                 `json:"stations"`
	Params   capacity.LineParams `json:"params"`
	Result   capacity.Result     `json:"result"`
}

// Estimate handles POST /api/estimate
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	params := h.defaults
	req := EstimateRequest{Params: &params}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	}
	if req.Params == nil {
		req.Params = &params
	}

	profile, err := profileFrom(req.Demands, req.DemandsText)
	if err != nil {
		writeError(w, "Invalid demands", err)
		return
	}

	res, err := capacity.Estimate(profile, *req.Params)
	if err != nil {
		writeError(w, "Failed to estimate line capacity", err)
		return
	}
	metrics.RecordEstimate("direct", res)

	writeJSON(w, http.StatusOK, EstimateResponse{
		Stations: len(profile),
		Params:   *req.Params,
		Result:   res,
	})
}
