package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the API-side metric families: generic HTTP
// request accounting plus counters for the upload pipeline, the LLM client
// and the extraction cache.
type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal     *prometheus.CounterVec
	conversionsTotal *prometheus.CounterVec
	llmCallsTotal    *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
	extractionsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skp",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "files",
			Name:      "uploads_total",
			Help:      "Total uploaded files by kind (document, archive).",
		},
		[]string{"service", "kind"},
	)
	conversionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "files",
			Name:      "archive_conversions_total",
			Help:      "Total archive-to-PDF conversions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	llmCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total LLM generate calls by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	llmDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skp",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total extraction requests by source (cache, llm).",
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		conversionsTotal,
		llmCallsTotal,
		llmDuration,
		extractionsTotal,
	)

	return &HTTPServerMetrics{
		service:          service,
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		uploadsTotal:     uploadsTotal,
		conversionsTotal: conversionsTotal,
		llmCallsTotal:    llmCallsTotal,
		llmDuration:      llmDuration,
		extractionsTotal: extractionsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps filename path parameters out of the label set.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/files/") && path != "/api/files/upload":
		return "/api/files/{filename}"
	case strings.HasPrefix(path, "/api/chat-history/"):
		return "/api/chat-history/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(kind string) {
	m.uploadsTotal.WithLabelValues(m.service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordConversion(outcome string) {
	m.conversionsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordLLMCall(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(m.service, operation, status).Inc()
	m.llmDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordExtraction(source string) {
	m.extractionsTotal.WithLabelValues(m.service, source).Inc()
}
