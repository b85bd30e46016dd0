// Package metrics counts what a run produced and exports it in the
// Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/carescope/internal/model"
)

const namespace = "carescope"

// Recorder holds the counters of one process. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	skipped  prometheus.Counter
	degraded *prometheus.CounterVec
	findings *prometheus.CounterVec
	flags    prometheus.Counter
	duration prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_assembled_total",
			Help:      "Output records assembled, by kind.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records not started before the run deadline.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_degraded_total",
			Help:      "Output records carrying a degraded condition, by condition.",
		}, []string{"condition"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Rule findings emitted, by category and severity.",
		}, []string{"category", "severity"}),
		flags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_flags_total",
			Help:      "Anomaly flags raised.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	r.registry.MustRegister(r.records, r.skipped, r.degraded, r.findings, r.flags, r.duration)

	// Pre-create the degraded series so a clean run still exports zeros.
	for _, c := range []string{model.DegradedMalformedField, model.DegradedGeocodeUnresolved, model.DegradedSummaryUnavailable} {
		r.degraded.WithLabelValues(c)
	}
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRecord counts one assembled record.
func (r *Recorder) ObserveRecord(rec model.OutputRecord) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(string(rec.Kind)).Inc()
	for _, c := range rec.Degraded {
		r.degraded.WithLabelValues(c).Inc()
	}
	for _, f := range rec.AllFindings() {
		r.findings.WithLabelValues(string(f.Category), string(f.Severity)).Inc()
	}
	r.flags.Add(float64(len(rec.Anomalies)))
}

// ObserveSkipped counts records dropped at the deadline.
func (r *Recorder) ObserveSkipped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skipped.Add(float64(n))
}

// ObserveDuration sets the run duration gauge.
func (r *Recorder) ObserveDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Set(d.Seconds())
}

// WriteFile writes every metric to path in the text exposition format,
// for the node exporter textfile collector.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
