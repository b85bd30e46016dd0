package reference

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/carescope/internal/model"
)

func TestLookup(t *testing.T) {
	tables := Default()

	tests := []struct {
		declared string
		wantKey  string
		wantOK   bool
	}{
		{"neurosurgery", "neurosurgery", true},
		{"NeuroSurgery", "neurosurgery", true},
		{"gynecologyAndObstetrics", "gynecologyAndObstetrics", true},
		{"Obstetrics and Gynecology", "gynecologyAndObstetrics", true},
		{"cardio", "cardiology", true},
		{"ophthalmologyServices", "ophthalmology", true},
		{"Cardiology Unit", "cardiology", true},
		{"pediatricSurgery", "", false},
		{"surgeryOncology", "", false},
		{"cardiologyInterventional", "", false},
		{"paediatrics", "pediatrics", true},
		{"dermatology", "", false},
		{"car", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			entry, ok := tables.Lookup(tt.declared)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.declared, ok, tt.wantOK)
			}
			if ok && entry.Key != tt.wantKey {
				t.Errorf("Lookup(%q) = %q, want %q", tt.declared, entry.Key, tt.wantKey)
			}
		})
	}
}

func TestWords(t *testing.T) {
	tests := map[string][]string{
		"pediatricSurgery":          {"pediatric", "surgery"},
		"Obstetrics and Gynecology": {"obstetrics", "and", "gynecology"},
		"ENT-services":              {"ent", "services"},
		"":                          nil,
	}
	for in, want := range tests {
		got := words(in)
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("words(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		text string
		term string
		want bool
	}{
		{"We have an MRI and CT scan", "mri", true},
		{"primary care", "mri", false},
		{"open 24/7 for walk-ins", "24/7", true},
		{"campus clinic", "camp", false},
		{"annual eye camp", "camp", true},
		{"Referral to Korle Bu", "referral", true},
		{"x-ray department", "x-ray", true},
		{"", "icu", false},
		{"icu", "", false},
	}

	for _, tt := range tests {
		if got := Match(tt.text, tt.term); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.text, tt.term, got, tt.want)
		}
	}
}

func TestTermsExpandLexicon(t *testing.T) {
	tables := Default()
	terms := tables.Terms("ICU")

	found := false
	for _, term := range terms {
		if term == "intensive care" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected ICU to expand to intensive care, got %v", terms)
	}
}

func TestTierFor(t *testing.T) {
	tables := Default()

	tests := []struct {
		severity int
		want     string
		sev      model.Severity
	}{
		{10, "urgent mobile clinic deployment", model.SeverityAlert},
		{9, "planned outreach program", model.SeverityWarning},
		{6, "planned outreach program", model.SeverityWarning},
		{5, "monitor and re-assess", model.SeverityInfo},
		{1, "monitor and re-assess", model.SeverityInfo},
		{0, "monitor and re-assess", model.SeverityInfo},
	}

	for _, tt := range tests {
		tier := tables.TierFor(tt.severity)
		if tier.Recommendation != tt.want {
			t.Errorf("TierFor(%d) = %q, want %q", tt.severity, tier.Recommendation, tt.want)
		}
		if tier.Severity != tt.sev {
			t.Errorf("TierFor(%d) severity = %s, want %s", tt.severity, tier.Severity, tt.sev)
		}
	}
}

func TestReadable(t *testing.T) {
	tests := map[string]string{
		"gynecologyAndObstetrics": "Gynecology & Obstetrics",
		"neurosurgery":            "Neurosurgery",
		"cardiacSurgery":          "Cardiac Surgery",
		"general ward":            "general ward",
	}
	for in, want := range tests {
		if got := Readable(in); got != want {
			t.Errorf("Readable(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse_Override(t *testing.T) {
	data := []byte(`
tiers:
  - min: 9
    name: urgent
    recommendation: urgent mobile clinic deployment
    severity: alert
  - min: 1
    name: monitor
    recommendation: monitor and re-assess
    severity: info
`)
	tables, err := Parse("override.yaml", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := tables.TierFor(9).Name; got != "urgent" {
		t.Errorf("Expected overridden tier urgent, got %s", got)
	}
	if _, ok := tables.Lookup("neurosurgery"); !ok {
		t.Error("Expected built-in specialties to survive a tiers-only override")
	}
}

func TestParse_ConfigurationError(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "specialties: [",
		"empty table":   "specialties: []",
		"no signals":    "specialties:\n  - key: oncology\n",
		"bad severity":  "tiers:\n  - min: 1\n    recommendation: x\n    severity: critical\n",
		"duplicate key": "specialties:\n  - key: a1b2\n    equipment: [x]\n  - key: A1B2\n    equipment: [y]\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("tables.yaml", []byte(doc))
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Path != "tables.yaml" {
				t.Errorf("Expected path tables.yaml, got %q", cfgErr.Path)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir() + "/missing.yaml")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
}

func TestDefaultTablesRoundTripThroughYAML(t *testing.T) {
	data, err := Default().YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	if _, err := Parse("default", data); err != nil {
		t.Errorf("Default tables should re-load cleanly: %v", err)
	}
}
