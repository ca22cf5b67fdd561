// Package metrics defines the Prometheus collectors used by the indexer,
// searcher and evaluator, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for an evaluation process.
type Metrics struct {
	DocsIndexedTotal       prometheus.Counter
	IndexLoadsTotal        *prometheus.CounterVec
	MalformedLinesTotal    *prometheus.CounterVec
	VocabularySize         prometheus.Gauge
	QueriesEvaluatedTotal  *prometheus.CounterVec
	QueryLatency           *prometheus.HistogramVec
	RankedResultsCount     prometheus.Histogram
	MeanAveragePrecision   *prometheus.GaugeVec
	VectorCacheBuildsTotal *prometheus.CounterVec
	RankCacheHitsTotal     prometheus.Counter
	RankCacheMissesTotal   prometheus.Counter
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. Passing nil
// registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents added to the term statistics.",
			},
		),
		IndexLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_loads_total",
				Help: "Index open operations by source (built, loaded) and status.",
			},
			[]string{"source", "status"},
		),
		MalformedLinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_malformed_lines_total",
				Help: "Persisted index lines skipped during load, by section.",
			},
			[]string{"section"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_vocabulary_size",
				Help: "Number of distinct terms in the loaded index.",
			},
		),
		QueriesEvaluatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_evaluated_total",
				Help: "Queries evaluated by status (ok, empty_query, empty_relevance_set, error).",
			},
			[]string{"status"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Time to vectorize and rank a single query.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"weighting"},
		),
		RankedResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranked_results_count",
				Help:    "Number of ranked documents returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		MeanAveragePrecision: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mean_average_precision",
				Help: "MAP of the most recent evaluation run per weighting.",
			},
			[]string{"weighting"},
		),
		VectorCacheBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_vector_builds_total",
				Help: "Document weight vector sets computed, by document scheme.",
			},
			[]string{"scheme"},
		),
		RankCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_hits_total",
				Help: "Total number of ranking cache hits.",
			},
		),
		RankCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_misses_total",
				Help: "Total number of ranking cache misses.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state by breaker (0 closed, 1 open, 2 half-open).",
			},
			[]string{"breaker"},
		),
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.IndexLoadsTotal,
		m.MalformedLinesTotal,
		m.VocabularySize,
		m.QueriesEvaluatedTotal,
		m.QueryLatency,
		m.RankedResultsCount,
		m.MeanAveragePrecision,
		m.VectorCacheBuildsTotal,
		m.RankCacheHitsTotal,
		m.RankCacheMissesTotal,
		m.CircuitBreakerState,
	)

	return m
}

// NewNop returns collectors registered on a throwaway registry, for callers
// and tests that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
