// Package metrics defines the Prometheus collectors for indexing runs,
// queries, and the synonym cache, and exposes an HTTP handler for scraping.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query phases.
const (
	PhaseDirect   = "direct"
	PhaseFallback = "fallback"
)

// Metrics holds all Prometheus collectors for docindex.
type Metrics struct {
	FilesIndexedTotal   *prometheus.CounterVec
	IndexRunsTotal      *prometheus.CounterVec
	IndexRunDuration    prometheus.Histogram
	IndexedDocuments    prometheus.Gauge
	QueryPhaseTotal     *prometheus.CounterVec
	QueryDuration       *prometheus.HistogramVec
	QueryResultsCount   *prometheus.HistogramVec
	SynonymCacheLookups *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
// A *prometheus.Registry serves as both registerer and gatherer.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FilesIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_files_indexed_total",
				Help: "Files processed by indexing runs, by result (succeeded, failed).",
			},
			[]string{"result"},
		),
		IndexRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_index_runs_total",
				Help: "Indexing runs by outcome (ok, empty, error).",
			},
			[]string{"outcome"},
		),
		IndexRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docindex_index_run_duration_seconds",
				Help:    "Duration of indexing runs in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docindex_indexed_documents",
				Help: "Documents in the index after the last run.",
			},
		),
		QueryPhaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_query_phase_total",
				Help: "Query phases executed, by operation and phase (direct, fallback).",
			},
			[]string{"operation", "phase"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docindex_query_duration_seconds",
				Help:    "Query latency in seconds by operation.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation"},
		),
		QueryResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docindex_query_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
			[]string{"operation"},
		),
		SynonymCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_synonym_cache_total",
				Help: "Synonym cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.FilesIndexedTotal,
		m.IndexRunsTotal,
		m.IndexRunDuration,
		m.IndexedDocuments,
		m.QueryPhaseTotal,
		m.QueryDuration,
		m.QueryResultsCount,
		m.SynonymCacheLookups,
	)

	return m
}

// FilesIndexed adds the per-file outcome of an indexing run.
func (m *Metrics) FilesIndexed(succeeded, failed int) {
	if m == nil {
		return
	}
	m.FilesIndexedTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	m.FilesIndexedTotal.WithLabelValues("failed").Add(float64(failed))
}

// RunFinished records one indexing run.
func (m *Metrics) RunFinished(outcome string, elapsed time.Duration, documents uint64) {
	if m == nil {
		return
	}
	m.IndexRunsTotal.WithLabelValues(outcome).Inc()
	m.IndexRunDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.IndexedDocuments.Set(float64(documents))
	}
}

// QueryPhase counts one executed query phase.
func (m *Metrics) QueryPhase(operation, phase string) {
	if m == nil {
		return
	}
	m.QueryPhaseTotal.WithLabelValues(operation, phase).Inc()
}

// QueryFinished records latency and result count for one query.
func (m *Metrics) QueryFinished(operation string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	m.QueryResultsCount.WithLabelValues(operation).Observe(float64(results))
}

// CacheLookup records a synonym cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.SynonymCacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.SynonymCacheLookups.WithLabelValues("miss").Inc()
	}
}

// Handler returns the Prometheus scrape HTTP handler for these collectors.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
