// Package metrics exposes prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters and timings.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal     prometheus.Counter
	ingestFailures   prometheus.Counter
	rendersTotal     prometheus.Counter
	pipelineDuration prometheus.Histogram
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		uploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salescope",
			Name:      "uploads_total",
			Help:      "Number of successfully ingested CSV uploads.",
		}),
		ingestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salescope",
			Name:      "ingest_failures_total",
			Help:      "Number of uploads rejected by the CSV parser.",
		}),
		rendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salescope",
			Name:      "renders_total",
			Help:      "Number of full dashboard render passes.",
		}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salescope",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a full render pass.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(m.uploadsTotal, m.ingestFailures, m.rendersTotal, m.pipelineDuration)
	return m
}

// ObserveUpload records a successful upload.
func (m *Metrics) ObserveUpload() { m.uploadsTotal.Inc() }

// ObserveIngestFailure records a rejected upload.
func (m *Metrics) ObserveIngestFailure() { m.ingestFailures.Inc() }

// ObserveRender records a completed render pass and its duration.
func (m *Metrics) ObserveRender(elapsed time.Duration) {
	m.rendersTotal.Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// Handler serves the prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
