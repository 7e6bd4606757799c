package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leveldensity_resolve_duration_seconds",
			Help:    "Isotope resolution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveldensity_resolve_total",
			Help: "Total isotope resolutions by outcome",
		},
		[]string{"outcome"},
	)

	FilesParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveldensity_files_parsed_total",
			Help: "Measurement files read, by status",
		},
		[]string{"status"},
	)

	ExportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveldensity_export_total",
			Help: "CSV export requests by outcome",
		},
		[]string{"outcome"},
	)

	ActiveWebSockets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveldensity_websocket_connections",
			Help: "Open dashboard websocket connections",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leveldensity_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

const (
	OutcomePrompt   = "prompt"
	OutcomeResolved = "resolved"
	OutcomeNoFolder = "folder_not_found"
	OutcomeExported = "exported"
	OutcomeNoResult = "no_prior_result"
	OutcomeFailed   = "failed"

	StatusOK        = "ok"
	StatusMalformed = "malformed"
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			ResolveDuration,
			ResolveTotal,
			FilesParsed,
			ExportTotal,
			ActiveWebSockets,
			RateLimited,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
