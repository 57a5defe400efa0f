// Package metrics holds the Prometheus collectors for park-planner.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for park-planner.
	Registry = prometheus.NewRegistry()

	// OptimizationRuns counts optimizer runs by requested strategy and outcome.
	OptimizationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_runs_total", Help: "Optimizer runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// OptimizationDuration records end-to-end run durations in seconds.
	OptimizationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimizer_run_duration_seconds", Help: "Optimizer run duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"strategy"},
	)
	// AlternativeScores tracks the score distribution of produced alternatives.
	AlternativeScores = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimizer_alternative_score", Help: "Score of produced alternatives.", Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}},
		[]string{"strategy"},
	)
	// ForecastLookups counts crowd forecast lookups by outcome (hit, absent, error).
	ForecastLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "crowd_forecast_lookups_total", Help: "Crowd forecast lookups by outcome."},
		[]string{"outcome"},
	)
	// ForecastCache counts Redis cache results by outcome (hit, miss, error).
	ForecastCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "crowd_forecast_cache_total", Help: "Crowd forecast cache lookups by outcome."},
		[]string{"outcome"},
	)
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(OptimizationRuns)
		Registry.MustRegister(OptimizationDuration)
		Registry.MustRegister(AlternativeScores)
		Registry.MustRegister(ForecastLookups)
		Registry.MustRegister(ForecastCache)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
