// Package metrics exposes Prometheus instrumentation for chart batches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iafilius/FixtureCharts/src/types"
)

var (
	// BatchesTotal counts finished batches by status (ok, error, skipped).
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartgen_batches_total",
			Help: "Total number of chart generation batches by outcome",
		},
		[]string{"status"},
	)

	// BatchDuration tracks wall time of a whole batch.
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chartgen_batch_duration_seconds",
			Help:    "Duration of chart generation batches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// ChartsRenderedTotal counts charts written to disk by kind.
	ChartsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartgen_charts_rendered_total",
			Help: "Total number of charts rendered and written",
		},
		[]string{"kind"},
	)

	// ChartFailuresTotal counts per-chart failures by kind and stage (prepare, render, write).
	ChartFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartgen_chart_failures_total",
			Help: "Total number of charts that failed to produce a file",
		},
		[]string{"kind", "stage"},
	)

	// WatermarkDegradedTotal counts batches that ran without their configured watermark.
	WatermarkDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chartgen_watermark_degraded_total",
			Help: "Batches composited without the configured watermark",
		},
	)

	// LastSuccess is the unix time of the last batch that ended ok.
	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chartgen_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful batch",
		},
	)
)

// RecordBatch records the outcome and duration of one batch.
func RecordBatch(res types.BatchResult, took time.Duration) {
	BatchesTotal.WithLabelValues(string(res.Status)).Inc()
	BatchDuration.Observe(took.Seconds())
	if res.Status == types.StatusOK {
		at := res.GeneratedAt
		if at.IsZero() {
			at = time.Now()
		}
		LastSuccess.Set(float64(at.Unix()))
	}
}

// RecordChart counts one chart written for kind.
func RecordChart(kind types.ChartKind) {
	ChartsRenderedTotal.WithLabelValues(string(kind)).Inc()
}

// RecordFailure counts one chart failure for kind at stage.
func RecordFailure(kind types.ChartKind, stage string) {
	if kind == "" {
		kind = "unknown"
	}
	ChartFailuresTotal.WithLabelValues(string(kind), stage).Inc()
}
