// Package metrics holds the Prometheus collectors of the Canopy server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
)

const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeCanceled     = "canceled"
	OutcomeError        = "error"
)

type Metrics struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	duration     prometheus.Histogram
	records      prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	bestK        prometheus.Gauge
}

// New builds the collectors on a dedicated registry, alongside the Go
// runtime and process collectors. Every outcome and cache result series is
// created at zero so a fresh scrape already lists them.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_analysis_runs_total",
			Help: "Analysis pipeline runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_analysis_duration_seconds",
			Help:    "Wall time of successful analysis runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		records: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_analysis_records",
			Help:    "Records analysed per run after filtering.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_cache_lookups_total",
			Help: "Analysis cache lookups by result.",
		}, []string{"result"}),
		bestK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_elbow_best_k",
			Help: "Cluster count chosen by the most recent run.",
		}),
	}
	for _, o := range []string{OutcomeSuccess, OutcomeInvalidInput, OutcomeCanceled, OutcomeError} {
		m.runs.WithLabelValues(o)
	}
	m.cacheLookups.WithLabelValues("hit")
	m.cacheLookups.WithLabelValues("miss")
	m.registry.MustRegister(
		m.runs, m.duration, m.records, m.cacheLookups, m.bestK,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records a successful run.
func (m *Metrics) ObserveRun(state *analysis.AnalysisState, elapsed time.Duration) {
	m.runs.WithLabelValues(OutcomeSuccess).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.records.Observe(float64(state.FilteredCount))
	if state.Elbow != nil {
		m.bestK.Set(float64(state.Elbow.BestK))
	}
}

func (m *Metrics) RunFailed(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
