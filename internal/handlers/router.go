package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/metrics"
)

// NewRouter wires every endpoint onto a chi router.
func NewRouter(estimate *EstimateHandler, fc *ForecastHandler, health *HealthHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", health.GetHealth)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/estimate", estimate.Estimate)

	r.Get("/api/forecast/runs", fc.GetRuns)
	r.Get("/api/forecast/{day}", fc.GetStaticForecast)
	r.Post("/api/forecast/{day}", fc.PlanDay)

	r.Get("/api/lines/{lineId}/multiplier", fc.GetMultiplier)
	r.Delete("/api/lines/{lineId}/multiplier", fc.ResetMultiplier)

	return r
}
