package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/carescope/internal/model"
)

func sampleRecord() model.OutputRecord {
	return model.OutputRecord{
		ID:   "facility_2",
		Kind: model.KindFacility,
		Findings: []model.CategoryFindings{
			{Category: model.CategoryValidation, Findings: []model.Finding{
				{Category: model.CategoryValidation, Rule: "Q3.1", Severity: model.SeverityWarning},
			}},
			{Category: model.CategoryAnomaly, Findings: []model.Finding{
				{Category: model.CategoryAnomaly, Rule: "Q4.4", Severity: model.SeverityAlert},
				{Category: model.CategoryAnomaly, Rule: "Q4.6", Severity: model.SeverityAlert},
			}},
		},
		Anomalies: []model.AnomalyFlag{{
			Finding:   model.Finding{Category: model.CategoryAnomaly, Severity: model.SeverityAlert},
			Specialty: "neurosurgery",
		}},
		Degraded:  []string{model.DegradedGeocodeUnresolved, model.DegradedSummaryUnavailable},
	}
}

func TestObserveRecord(t *testing.T) {
	r := NewRecorder()
	r.ObserveRecord(sampleRecord())
	r.ObserveRecord(model.OutputRecord{Kind: model.KindDesert, Degraded: []string{model.DegradedSummaryUnavailable}})

	if got := testutil.ToFloat64(r.records.WithLabelValues("facility")); got != 1 {
		t.Errorf("Expected 1 facility record, got %v", got)
	}
	if got := testutil.ToFloat64(r.records.WithLabelValues("desert")); got != 1 {
		t.Errorf("Expected 1 desert record, got %v", got)
	}
	if got := testutil.ToFloat64(r.degraded.WithLabelValues(model.DegradedSummaryUnavailable)); got != 2 {
		t.Errorf("Expected 2 summary_unavailable, got %v", got)
	}
	if got := testutil.ToFloat64(r.degraded.WithLabelValues(model.DegradedMalformedField)); got != 0 {
		t.Errorf("Expected 0 malformed_field, got %v", got)
	}
	if got := testutil.ToFloat64(r.findings.WithLabelValues("Q4", "alert")); got != 2 {
		t.Errorf("Expected 2 Q4 alerts, got %v", got)
	}
	if got := testutil.ToFloat64(r.flags); got != 1 {
		t.Errorf("Expected 1 anomaly flag, got %v", got)
	}
}

func TestDegradedSeriesExistBeforeObservations(t *testing.T) {
	r := NewRecorder()

	if got := testutil.CollectAndCount(r.degraded); got != 3 {
		t.Errorf("Expected 3 degraded series, got %d", got)
	}
}

func TestSkippedAndDuration(t *testing.T) {
	r := NewRecorder()
	r.ObserveSkipped(0)
	r.ObserveSkipped(3)
	r.ObserveDuration(1500 * time.Millisecond)

	if got := testutil.ToFloat64(r.skipped); got != 3 {
		t.Errorf("Expected 3 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(r.duration); got != 1.5 {
		t.Errorf("Expected 1.5s, got %v", got)
	}
}

func TestWriteFile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRecord(sampleRecord())

	path := filepath.Join(t.TempDir(), "carescope.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`carescope_records_assembled_total{kind="facility"} 1`,
		`carescope_records_degraded_total{condition="geocode_unresolved"} 1`,
		`carescope_findings_total{category="Q3",severity="warning"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected metrics file to contain %q, got:\n%s", want, text)
		}
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveRecord(sampleRecord())
	r.ObserveSkipped(1)
	r.ObserveDuration(time.Second)
	if err := r.WriteFile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("Expected nil error from nil recorder, got %v", err)
	}
	if r.Registry() != nil {
		t.Error("Expected nil registry")
	}
}
