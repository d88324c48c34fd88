package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsInFlight  prometheus.Gauge
	chunksTotal   *prometheus.CounterVec
	mappingsTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grc",
			Subsystem: "worker",
			Name:      "evidence_runs_total",
			Help:      "Total evidence processing runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grc",
			Subsystem: "worker",
			Name:      "evidence_run_duration_seconds",
			Help:      "Evidence processing run duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "grc",
			Subsystem: "worker",
			Name:      "evidence_runs_in_flight",
			Help:      "Number of in-flight evidence processing runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grc",
			Subsystem: "worker",
			Name:      "chunks_created_total",
			Help:      "Total evidence chunks persisted by completed runs.",
		},
		[]string{"service"},
	)
	mappingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grc",
			Subsystem: "worker",
			Name:      "mappings_created_total",
			Help:      "Total chunk-to-control mappings persisted by completed runs.",
		},
		[]string{"service"},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, chunksTotal, mappingsTotal)

	return &WorkerMetrics{
		registry:      registry,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
		runsInFlight:  runsInFlight,
		chunksTotal:   chunksTotal,
		mappingsTotal: mappingsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runsInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.runsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runsTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveRunOutput(service string, chunks, mappings int) {
	if chunks > 0 {
		m.chunksTotal.WithLabelValues(service).Add(float64(chunks))
	}
	if mappings > 0 {
		m.mappingsTotal.WithLabelValues(service).Add(float64(mappings))
	}
}
