package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the engine's operational counters. Each engine owns its
// own registry so tests can run engines side by side without collisions.
type Metrics struct {
	registry *prometheus.Registry

	IngestsTotal           *prometheus.CounterVec
	SynthesesTotal         *prometheus.CounterVec
	BudgetDenialsTotal     prometheus.Counter
	RecordsSuppressedTotal prometheus.Counter
	DatasetsStored         prometheus.Gauge
	BatchSize              prometheus.Histogram
}

// NewMetrics creates and registers the engine metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		IngestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ppsde",
			Name:      "ingests_total",
			Help:      "Ingest calls by outcome.",
		}, []string{"outcome"}),
		SynthesesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ppsde",
			Name:      "syntheses_total",
			Help:      "Synthesis calls by outcome and generation mode.",
		}, []string{"outcome", "mode"}),
		BudgetDenialsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ppsde",
			Name:      "budget_denials_total",
			Help:      "Privacy budget reservations denied.",
		}),
		RecordsSuppressedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ppsde",
			Name:      "records_suppressed_total",
			Help:      "Records suppressed by k-anonymity enforcement.",
		}),
		DatasetsStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ppsde",
			Name:      "datasets_stored",
			Help:      "Anonymized datasets currently held in the store.",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ppsde",
			Name:      "ingest_batch_size",
			Help:      "Raw batch sizes submitted for ingestion.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// Handler serves this metric set over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
