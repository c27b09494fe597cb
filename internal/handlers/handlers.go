package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/forecast"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/report"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps invalid-input errors to 400 and everything else to 500.
func writeError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if isInvalidInput(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Details: map[string]interface{}{
			"internal": err.Error(),
		},
	})
}

func isInvalidInput(err error) bool {
	return errors.Is(err, capacity.ErrInvalidInput) ||
		errors.Is(err, forecast.ErrInvalidInput) ||
		errors.Is(err, report.ErrMalformedDemands)
}

// profileFrom prefers an explicit numeric list and falls back to parsing text.
func profileFrom(values []float64, text string) ([]float64, error) {
	if len(values) > 0 {
		return values, nil
	}
	return report.ParseDemands(text)
}
