package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pixie"

// Metrics collects pipeline counters on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	imagesPersisted  *prometheus.CounterVec
	failures         *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.imagesPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_persisted_total",
			Help:      "Images written to the output directory",
		},
		[]string{"kind"},
	)
	m.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_failures_total",
			Help:      "Image failures by pipeline stage",
		},
		[]string{"stage"},
	)
	m.providerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of image provider calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"operation", "status"},
	)

	m.registry.MustRegister(m.imagesPersisted, m.failures, m.providerDuration)
	return m
}

func (m *Metrics) ImagePersisted(kind string) {
	if m == nil {
		return
	}
	m.imagesPersisted.WithLabelValues(kind).Inc()
}

func (m *Metrics) Failure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveProvider(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
