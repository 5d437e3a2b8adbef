package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the background extraction pre-warm loop.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	prewarmTotal    *prometheus.CounterVec
	prewarmDuration *prometheus.HistogramVec
	prewarmInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	prewarmTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skp",
			Subsystem: "worker",
			Name:      "extraction_prewarm_total",
			Help:      "Total pre-warmed extractions by status.",
		},
		[]string{"service", "status"},
	)
	prewarmDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skp",
			Subsystem: "worker",
			Name:      "extraction_prewarm_duration_seconds",
			Help:      "Extraction pre-warm duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	prewarmInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skp",
			Subsystem: "worker",
			Name:      "extraction_prewarm_in_flight",
			Help:      "Number of in-flight extraction pre-warm tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(prewarmTotal, prewarmDuration, prewarmInFlight)

	return &WorkerMetrics{
		service:         service,
		registry:        registry,
		prewarmTotal:    prewarmTotal,
		prewarmDuration: prewarmDuration,
		prewarmInFlight: prewarmInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPrewarm() {
	m.prewarmInFlight.Inc()
}

func (m *WorkerMetrics) FinishPrewarm(duration time.Duration, err error) {
	m.prewarmInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.prewarmTotal.WithLabelValues(m.service, status).Inc()
	m.prewarmDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}
