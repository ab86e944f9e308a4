package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// LookupsTotal counts per-point remote lookups by filter and result.
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urban_twin",
		Subsystem: "analysis",
		Name:      "point_lookups_total",
		Help:      "Total number of per-point weather lookups, labeled by filter and result.",
	}, []string{"filter", "result"})

	// FilterDurationSeconds is the time one filter takes from fan-out to aggregate.
	FilterDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "urban_twin",
		Subsystem: "analysis",
		Name:      "filter_duration_seconds",
		Help:      "Time to run one analysis filter over an area, labeled by filter and status.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"filter", "status"})

	// RunsInFlight is the number of analysis runs currently executing.
	RunsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "urban_twin",
		Subsystem: "analysis",
		Name:      "runs_in_flight",
		Help:      "Current number of analysis runs executing.",
	})

	// RunsTotal counts finished runs by outcome.
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urban_twin",
		Subsystem: "analysis",
		Name:      "runs_total",
		Help:      "Total number of analysis runs, labeled by outcome.",
	}, []string{"status"})

	// HeatmapRenderSeconds is the time to splat, blur and color one raster.
	HeatmapRenderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "urban_twin",
		Subsystem: "heatmap",
		Name:      "render_duration_seconds",
		Help:      "Time to render one heatmap raster.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts API requests by method, route and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urban_twin",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by method, route and status.",
	}, []string{"method", "route", "status"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			LookupsTotal,
			FilterDurationSeconds,
			RunsInFlight,
			RunsTotal,
			HeatmapRenderSeconds,
			HTTPRequestsTotal,
		)
	})
}
