package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// telemetry engine.
type Metrics struct {
	SamplesIngested prometheus.Counter
	IngestErrors    prometheus.Counter
	UnknownNodes    prometheus.Counter
	StatusChanges   *prometheus.CounterVec // labels: status={normal,warning,critical,offline}
	PipelineRunning prometheus.Gauge

	// Batch ingestion metrics (Kafka path).
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Read-side metrics.
	AlertsGenerated   prometheus.Histogram
	StatsRequestCount *prometheus.CounterVec // labels: view={dashboard,urban,rural,industrial,alerts}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqua_nexus",
			Name:      "samples_ingested_total",
			Help:      "Total telemetry samples accepted into the store.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqua_nexus",
			Name:      "ingest_errors_total",
			Help:      "Total telemetry samples rejected during ingestion.",
		}),
		UnknownNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqua_nexus",
			Name:      "unknown_node_samples_total",
			Help:      "Samples referencing a node that does not exist.",
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqua_nexus",
			Name:      "status_changes_total",
			Help:      "Node status transitions by new status.",
		}, []string{"status"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqua_nexus",
			Name:      "pipeline_running",
			Help:      "1 when the Kafka ingest pipeline is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqua_nexus",
			Name:      "batch_size",
			Help:      "Number of samples per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqua_nexus",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-classify-store cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AlertsGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqua_nexus",
			Name:      "alerts_generated",
			Help:      "Alerts produced per alert scan.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		StatsRequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqua_nexus",
			Name:      "stats_requests_total",
			Help:      "Aggregation requests served by view.",
		}, []string{"view"}),
	}

	prometheus.MustRegister(
		m.SamplesIngested,
		m.IngestErrors,
		m.UnknownNodes,
		m.StatusChanges,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AlertsGenerated,
		m.StatsRequestCount,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SamplesIngested:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqua_nexus", Name: "samples_ingested_total"}),
		IngestErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqua_nexus", Name: "ingest_errors_total"}),
		UnknownNodes:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqua_nexus", Name: "unknown_node_samples_total"}),
		StatusChanges:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqua_nexus", Name: "status_changes_total"}, []string{"status"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqua_nexus", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqua_nexus", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqua_nexus", Name: "batch_processing_duration_seconds"}),
		AlertsGenerated:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqua_nexus", Name: "alerts_generated"}),
		StatsRequestCount:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqua_nexus", Name: "stats_requests_total"}, []string{"view"}),
	}
}
