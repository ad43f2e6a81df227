// Package metrics provides Prometheus instrumentation for import runs.
//
// Each run gets its own registry so a one-shot CLI invocation can dump its
// numbers to a node_exporter textfile. All metrics are prefixed with "tunes_".
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the metrics of one import run
type Recorder struct {
	registry *prometheus.Registry

	recordsTotal    *prometheus.CounterVec
	recordDuration  prometheus.Histogram
	malformedTotal  prometheus.Counter
	runDuration     prometheus.Gauge
	lastRunTime     prometheus.Gauge
	lastRunStatus   *prometheus.GaugeVec
	libraryEntities *prometheus.GaugeVec
}

// New creates a recorder backed by a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunes_import_records_total",
				Help: "Library records processed, by outcome",
			},
			[]string{"status"}, // "imported", "skipped", "failed"
		),

		recordDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tunes_import_record_duration_seconds",
				Help:    "Time to normalize and persist one record",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),

		malformedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tunes_import_malformed_pairs_total",
				Help: "Stray or uncoercible nodes skipped inside track dictionaries",
			},
		),

		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tunes_import_run_duration_seconds",
				Help: "Wall time of the last import run",
			},
		),

		lastRunTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tunes_import_last_run_timestamp_seconds",
				Help: "Unix time the last import run finished",
			},
		),

		lastRunStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tunes_import_last_run_status",
				Help: "1 for the status of the last import run, 0 otherwise",
			},
			[]string{"status"},
		),

		libraryEntities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tunes_library_rows",
				Help: "Rows per library table after the last import run",
			},
			[]string{"table"},
		),
	}
}

// ObserveRecord counts one processed record and its processing time
func (r *Recorder) ObserveRecord(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.recordsTotal.WithLabelValues(status).Inc()
	r.recordDuration.Observe(d.Seconds())
}

// AddMalformed counts skipped malformed pairs
func (r *Recorder) AddMalformed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.malformedTotal.Add(float64(n))
}

// FinishRun records the final status and duration of a run. Only the given
// status is set to 1 among statuses.
func (r *Recorder) FinishRun(status string, statuses []string, d time.Duration) {
	if r == nil {
		return
	}
	for _, s := range statuses {
		r.lastRunStatus.WithLabelValues(s).Set(0)
	}
	r.lastRunStatus.WithLabelValues(status).Set(1)
	r.runDuration.Set(d.Seconds())
	r.lastRunTime.SetToCurrentTime()
}

// SetLibraryRows publishes the row count of one library table
func (r *Recorder) SetLibraryRows(table string, rows int) {
	if r == nil {
		return
	}
	r.libraryEntities.WithLabelValues(table).Set(float64(rows))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
