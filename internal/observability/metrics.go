package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the advisor.
type Metrics struct {
	// Refresh coordination.
	RefreshRequests    *prometheus.CounterVec // labels: origin={geolocation,manual,timer}
	RefreshOutcomes    *prometheus.CounterVec // labels: origin, outcome={applied,superseded,failed}
	AutoRefreshRunning prometheus.Gauge

	// Assessment.
	HazardQueryDuration prometheus.Histogram
	HazardQueryErrors   prometheus.Counter
	DominantSeverity    prometheus.Gauge // 0=safe .. 4=extreme, last applied assessment
	FeedPublishErrors   prometheus.Counter

	// Geocoding.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: tier={memory,redis}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
}

// NewMetrics creates and registers all advisor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshRequests,
		m.RefreshOutcomes,
		m.AutoRefreshRunning,
		m.HazardQueryDuration,
		m.HazardQueryErrors,
		m.DominantSeverity,
		m.FeedPublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "refresh_requests_total",
			Help:      "Assessment requests issued, by origin.",
		}, []string{"origin"}),
		RefreshOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "refresh_outcomes_total",
			Help:      "Terminal request outcomes, by origin and outcome.",
		}, []string{"origin", "outcome"}),
		AutoRefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safety_advisor",
			Name:      "auto_refresh_running",
			Help:      "1 while the periodic refresh loop is active, 0 otherwise.",
		}),
		HazardQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safety_advisor",
			Name:      "hazard_query_duration_seconds",
			Help:      "Hazard backend round-trip duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		HazardQueryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "hazard_query_errors_total",
			Help:      "Hazard backend failures (transport, status, or decode).",
		}),
		DominantSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safety_advisor",
			Name:      "dominant_severity",
			Help:      "Dominant severity of the displayed assessment: 0 safe, 1 minor, 2 moderate, 3 severe, 4 extreme.",
		}),
		FeedPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "feed_publish_errors_total",
			Help:      "Assessment feed messages that failed to publish.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_advisor",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safety_advisor",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
	}
}
