package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/capacity"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "queueing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queueing",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	estimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queueing",
			Name:      "estimates_total",
			Help:      "Capacity estimates computed, by source",
		},
		[]string{"source"},
	)

	forecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queueing",
			Name:      "forecasts_total",
			Help:      "Demand forecasts produced, by whether an observation was folded in",
		},
		[]string{"adapted"},
	)

	lastTrains = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "queueing",
			Name:      "last_trains_needed",
			Help:      "Trains needed in the most recent estimate",
		},
		[]string{"source"},
	)

	lastFillRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "queueing",
			Name:      "last_fill_rate",
			Help:      "Fill rate of the most recent estimate [0,1]",
		},
		[]string{"source"},
	)

	lastDwellSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "queueing",
			Name:      "last_dwell_seconds",
			Help:      "Average station dwell time of the most recent estimate",
		},
		[]string{"source"},
	)
)

// RecordEstimate counts an estimate and publishes its values. source is
// "direct" for caller-supplied profiles and "forecast" for forecast days.
func RecordEstimate(source string, res capacity.Result) {
	estimatesTotal.WithLabelValues(source).Inc()
	lastTrains.WithLabelValues(source).Set(float64(res.Trains))
	lastFillRate.WithLabelValues(source).Set(res.FillRate)
	lastDwellSeconds.WithLabelValues(source).Set(res.DwellSeconds)
}

// RecordForecast counts a forecast.
func RecordForecast(adapted bool) {
	forecastsTotal.WithLabelValues(strconv.FormatBool(adapted)).Inc()
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		requestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(r.Method, status).Inc()
	})
}
