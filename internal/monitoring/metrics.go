// Package monitoring holds the Prometheus collectors for pwagen.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Artifact kinds counted by ArtifactsGenerated.
const (
	ArtifactManifest = "manifest"
	ArtifactWorker   = "service_worker"
	ArtifactIndex    = "index_html"
	ArtifactBundle   = "bundle"
	ArtifactCheck    = "check"
)

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	registry *prometheus.Registry

	ArtifactsGenerated *prometheus.CounterVec
	WorkerStrategies   *prometheus.CounterVec
	RecordOperations   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	EventsDropped      prometheus.CounterFunc
}

// New registers pwagen collectors plus the Go and process collectors on a
// fresh registry. droppedEvents may be nil.
func New(droppedEvents func() uint64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		ArtifactsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwagen_artifacts_generated_total",
			Help: "The total number of generated artifacts by kind",
		}, []string{"kind"}),
		WorkerStrategies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwagen_service_worker_strategy_total",
			Help: "The total number of service workers generated by caching strategy",
		}, []string{"strategy"}),
		RecordOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pwagen_record_operations_total",
			Help: "The total number of record operations by operation and result",
		}, []string{"operation", "result"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pwagen_generation_duration_seconds",
			Help:    "Duration of artifact generation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
	}

	if droppedEvents != nil {
		m.EventsDropped = factory.NewCounterFunc(prometheus.CounterOpts{
			Name: "pwagen_events_dropped_total",
			Help: "The total number of record events dropped because the bus was full",
		}, func() float64 { return float64(droppedEvents()) })
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordOperation counts one record operation outcome.
func (m *Metrics) RecordOperation(op, result string) {
	m.RecordOperations.WithLabelValues(op, result).Inc()
}

// ObserveGeneration counts an artifact and records how long it took.
func (m *Metrics) ObserveGeneration(kind string, seconds float64) {
	m.ArtifactsGenerated.WithLabelValues(kind).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(seconds)
}

// ObserveWorkerStrategy counts a generated service worker by strategy.
func (m *Metrics) ObserveWorkerStrategy(strategy string) {
	m.WorkerStrategies.WithLabelValues(strategy).Inc()
}
