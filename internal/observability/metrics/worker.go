package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	applyTotal    *prometheus.CounterVec
	applyDuration *prometheus.HistogramVec
	applyInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	applyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noise",
			Subsystem: "worker",
			Name:      "apply_total",
			Help:      "Total process-noise-data requests by data type and status.",
		},
		[]string{"service", "data_type", "status"},
	)
	applyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "noise",
			Subsystem: "worker",
			Name:      "apply_duration_seconds",
			Help:      "process-noise-data duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	applyInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "noise",
			Subsystem: "worker",
			Name:      "apply_in_flight",
			Help:      "Number of in-flight process-noise-data requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(applyTotal, applyDuration, applyInFlight)

	return &WorkerMetrics{
		registry:      registry,
		applyTotal:    applyTotal,
		applyDuration: applyDuration,
		applyInFlight: applyInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartApply() {
	m.applyInFlight.Inc()
}

func (m *WorkerMetrics) FinishApply(service, dataType string, duration time.Duration, err error) {
	m.applyInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	if dataType == "" {
		dataType = "unknown"
	}

	m.applyTotal.WithLabelValues(service, dataType, status).Inc()
	m.applyDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
