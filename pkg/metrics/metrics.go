// Package metrics defines the Prometheus collectors shared by the keyword
// service binaries and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extraction outcomes recorded on ExtractionsTotal.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ExtractionsTotal     *prometheus.CounterVec
	ExtractionLatency    *prometheus.HistogramVec
	KeywordsReturned     prometheus.Histogram
	CacheHitsTotal       *prometheus.CounterVec
	CacheMissesTotal     prometheus.Counter
	LexiconTerms         prometheus.Gauge
	LexiconStopWords     prometheus.Gauge
	LexiconSkippedLines  prometheus.Gauge
	JobsProcessedTotal   *prometheus.CounterVec
	RateLimitedTotal     prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them on reg. A nil reg means the
// global default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_extractions_total",
				Help: "Keyword extractions by outcome (ok, empty, error).",
			},
			[]string{"outcome"},
		),
		ExtractionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_extraction_latency_seconds",
				Help:    "Keyword extraction latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
			[]string{"cache_status"},
		),
		KeywordsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keyword_extraction_keywords_returned",
				Help:    "Number of keywords returned per extraction.",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_cache_hits_total",
				Help: "Extraction cache hits by tier (lru, redis).",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keyword_cache_misses_total",
				Help: "Extraction cache misses.",
			},
		),
		LexiconTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyword_lexicon_terms",
				Help: "Entries in the loaded IDF table.",
			},
		),
		LexiconStopWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyword_lexicon_stop_words",
				Help: "Entries in the loaded stop-word set.",
			},
		),
		LexiconSkippedLines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyword_lexicon_skipped_lines",
				Help: "Malformed IDF lines skipped while loading.",
			},
		),
		JobsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_jobs_processed_total",
				Help: "Extraction jobs handled by the worker, by status.",
			},
			[]string{"status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_requests_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ExtractionsTotal,
		m.ExtractionLatency,
		m.KeywordsReturned,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.LexiconTerms,
		m.LexiconStopWords,
		m.LexiconSkippedLines,
		m.JobsProcessedTotal,
		m.RateLimitedTotal,
		m.CircuitBreakerState,
	)
	return m
}

// SetLexicon publishes the size of the loaded lexicon.
func (m *Metrics) SetLexicon(stopWords, terms, skippedLines int) {
	m.LexiconStopWords.Set(float64(stopWords))
	m.LexiconTerms.Set(float64(terms))
	m.LexiconSkippedLines.Set(float64(skippedLines))
}

// ObserveExtraction records one extraction and how many keywords it returned.
func (m *Metrics) ObserveExtraction(cacheStatus string, seconds float64, returned int, err error) {
	switch {
	case err != nil:
		m.ExtractionsTotal.WithLabelValues(OutcomeError).Inc()
		return
	case returned == 0:
		m.ExtractionsTotal.WithLabelValues(OutcomeEmpty).Inc()
	default:
		m.ExtractionsTotal.WithLabelValues(OutcomeOK).Inc()
	}
	m.ExtractionLatency.WithLabelValues(cacheStatus).Observe(seconds)
	m.KeywordsReturned.Observe(float64(returned))
}

// Handler returns the scrape handler for g, or the global one when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
