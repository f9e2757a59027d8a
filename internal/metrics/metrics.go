// Package metrics holds the Prometheus collectors the server exports on
// /metrics.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeNoText   = "no_text"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// File type label values.
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
	FileTypeText  = "text"
	FileTypeOther = "other"
)

// Metrics groups the application and HTTP collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal      *prometheus.CounterVec
	CacheLookupsTotal  *prometheus.CounterVec
	SuggestionsTotal   *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postcoach_analyses_total",
			Help: "Total number of analyses by file type and outcome.",
		}, []string{"file_type", "outcome"}),
		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postcoach_cache_lookups_total",
			Help: "Total number of analysis cache lookups by result.",
		}, []string{"result"}), // result: "hit", "miss" or "error"
		SuggestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postcoach_suggestions_total",
			Help: "Total number of suggestions emitted by type.",
		}, []string{"type"}),
		ExtractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postcoach_extraction_duration_seconds",
			Help:    "Duration of text extraction in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPResponseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		}, []string{"method", "path", "status"}),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),
	}
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileTypeLabel maps a media type onto the fixed set of "file_type" label
// values, so client-supplied Content-Types cannot create new series.
func FileTypeLabel(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case mt == "application/pdf":
		return FileTypePDF
	case strings.HasPrefix(mt, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mt, "text/plain"):
		return FileTypeText
	default:
		return FileTypeOther
	}
}

// ObserveAnalysis counts one analysis. mediaType is collapsed with
// FileTypeLabel.
func (m *Metrics) ObserveAnalysis(mediaType, outcome string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(FileTypeLabel(mediaType), outcome).Inc()
}

func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSuggestion(suggestionType string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(suggestionType).Inc()
}

func (m *Metrics) ObserveExtraction(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
