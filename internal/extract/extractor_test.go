package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

func record(m map[string]string) model.RawRecord {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return model.RawRecordFromMap(2, keys, m)
}

func TestExtract_JSONLists(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"name":        "Tamale Teaching Hospital",
		"specialties": `["cardiology","Cardiology","pediatrics", "", null]`,
		"procedure":   `["Hernia repair"]`,
		"equipment":   `["Philips X-ray unit"]`,
		"capability":  `["Intensive care unit with ventilators", "24/7 emergency"]`,
	}))

	if len(ex.Malformed) != 0 {
		t.Fatalf("Expected no malformed fields, got %v", ex.Malformed)
	}

	f := ex.Fields
	if diff := cmp.Diff([]string{"cardiology", "pediatrics"}, f.Specialties); diff != "" {
		t.Errorf("Specialties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Hernia repair"}, f.Procedures); diff != "" {
		t.Errorf("Procedures mismatch (-want +got):\n%s", diff)
	}
	wantEquipment := []string{"Philips X-ray unit", "ventilator", "ICU"}
	if diff := cmp.Diff(wantEquipment, f.EquipmentMentions); diff != "" {
		t.Errorf("EquipmentMentions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ventilator", "ICU"}, f.InferredEquipment); diff != "" {
		t.Errorf("InferredEquipment mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_FreeTextFallbacks(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"specialties": "Neurosurgery and general paediatrics clinic",
		"equipment":   "we own an ultrasound machine and a CT scanner",
		"capability":  "general ward",
	}))

	if len(ex.Malformed) != 0 {
		t.Errorf("Free text is not malformed, got %v", ex.Malformed)
	}
	if diff := cmp.Diff([]string{"neurosurgery", "pediatrics"}, ex.Fields.Specialties); diff != "" {
		t.Errorf("Specialties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CT scan", "ultrasound"}, ex.Fields.EquipmentMentions); diff != "" {
		t.Errorf("EquipmentMentions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"general ward"}, ex.Fields.Capabilities); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_BrokenArray(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"procedure": `["Cataract surgery","Hernia repair`,
	}))

	if len(ex.Malformed) != 1 {
		t.Fatalf("Expected 1 malformed field, got %d", len(ex.Malformed))
	}
	if ex.Malformed[0].Field != model.ColProcedure {
		t.Errorf("Expected malformed field procedure, got %s", ex.Malformed[0].Field)
	}
	if diff := cmp.Diff([]string{"Cataract surgery", "Hernia repair"}, ex.Fields.Procedures); diff != "" {
		t.Errorf("Procedures mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyMarkers(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"specialties": "null",
		"procedure":   "[]",
		"equipment":   "  ",
		"capability":  "NULL",
	}))

	if len(ex.Malformed) != 0 {
		t.Errorf("Expected no malformed fields, got %v", ex.Malformed)
	}
	f := ex.Fields
	for name, got := range map[string][]string{
		"specialties": f.Specialties,
		"procedures":  f.Procedures,
		"equipment":   f.EquipmentMentions,
		"capability":  f.Capabilities,
	} {
		if got == nil || len(got) != 0 {
			t.Errorf("Expected empty non-nil %s, got %#v", name, got)
		}
	}
	if len(ex.Consulted) != 0 {
		t.Errorf("Expected nothing consulted, got %v", ex.Consulted)
	}
}

func TestExtract_Counts(t *testing.T) {
	tests := []struct {
		name      string
		row       map[string]string
		wantBeds  model.Count
		wantDocs  model.Count
		malformed int
	}{
		{
			name:     "integers",
			row:      map[string]string{"bedsTotal": "120", "doctorsCount": "12"},
			wantBeds: model.KnownCount(120),
			wantDocs: model.KnownCount(12),
		},
		{
			name:     "aliases and float strings",
			row:      map[string]string{"capacity": "40.0", "numberDoctors": "0"},
			wantBeds: model.KnownCount(40),
			wantDocs: model.KnownCount(0),
		},
		{
			name:     "missing is unknown not zero",
			row:      map[string]string{},
			wantBeds: model.UnknownCount(),
			wantDocs: model.UnknownCount(),
		},
		{
			name:      "garbage is malformed",
			row:       map[string]string{"bedsTotal": "about fifty", "doctorsCount": "-3"},
			wantBeds:  model.UnknownCount(),
			wantDocs:  model.UnknownCount(),
			malformed: 2,
		},
		{
			name:      "fractional is malformed",
			row:       map[string]string{"bedsTotal": "12.5"},
			wantBeds:  model.UnknownCount(),
			wantDocs:  model.UnknownCount(),
			malformed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(reference.Default()).Extract(record(tt.row))
			if ex.Fields.BedCount != tt.wantBeds {
				t.Errorf("BedCount = %v, want %v", ex.Fields.BedCount, tt.wantBeds)
			}
			if ex.Fields.DoctorCount != tt.wantDocs {
				t.Errorf("DoctorCount = %v, want %v", ex.Fields.DoctorCount, tt.wantDocs)
			}
			if len(ex.Malformed) != tt.malformed {
				t.Errorf("Expected %d malformed, got %v", tt.malformed, ex.Malformed)
			}
			for _, m := range ex.Malformed {
				var target *MalformedFieldError
				if !errors.As(error(m), &target) {
					t.Errorf("Expected MalformedFieldError, got %T", m)
				}
			}
		})
	}
}

func TestExtract_Address(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"address_line1":         "  Hospital   Road ",
		"address_city":          "Tamale",
		"address_stateOrRegion": "",
		"address_country":       "Ghana",
	}))

	if ex.Fields.Address != "Hospital Road Tamale Ghana" {
		t.Errorf("Expected single-spaced address, got %q", ex.Fields.Address)
	}
	if ex.Fields.Locality() != "Tamale" {
		t.Errorf("Expected locality to fall back to city, got %q", ex.Fields.Locality())
	}
}

func TestExtract_NarrativeStripsHTML(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"description":             "<p>Open <b>24 hours</b></p><script>track()</script>",
		"organizationDescription": "Run by a  Catholic mission",
		"facilityTypeId":          "Hospital",
	}))

	want := "open 24 hours run by a catholic mission"
	if ex.Fields.Narrative != want {
		t.Errorf("Narrative = %q, want %q", ex.Fields.Narrative, want)
	}
	if ex.Fields.FacilityType != "hospital" {
		t.Errorf("Expected lowercase facility type, got %q", ex.Fields.FacilityType)
	}
}

func TestExtract_Consulted(t *testing.T) {
	ex := New(reference.Default()).Extract(record(map[string]string{
		"name":        "Clinic",
		"specialties": `["dentistry"]`,
		"equipment":   "",
		"capacity":    "10",
	}))

	want := map[string]bool{"name": true, "specialties": true, "capacity": true}
	if len(ex.Consulted) != len(want) {
		t.Fatalf("Expected %d consulted columns, got %v", len(want), ex.Consulted)
	}
	for _, c := range ex.Consulted {
		if !want[c] {
			t.Errorf("Unexpected consulted column %s", c)
		}
	}
}

// Extraction is total: hostile input never panics and always yields complete fields.
func TestExtract_HostileInputs(t *testing.T) {
	hostile := []string{
		"", "null", "[", "]", "[[[[", `{"a":`, `"unterminated`, `[1, 2.5, true, null, {"k":"v"}, ["nested"]]`,
		strings.Repeat("[", 10000), "\x00\xff\xfe", "<script>", "<<<>>>", "NaN", "Inf", "1e400",
		"9999999999999999999999", "-0", "   \t\n  ", `","","`, "🏥🏥🏥", strings.Repeat("a", 100000),
	}
	columns := []string{
		"name", "specialties", "procedure", "equipment", "capability", "bedsTotal",
		"doctorsCount", "address_line1", "description", "organizationDescription",
	}

	extractor := New(reference.Default())
	for _, value := range hostile {
		for _, col := range columns {
			ex := extractor.Extract(record(map[string]string{col: value}))
			if ex == nil {
				t.Fatalf("Extract returned nil for %s=%q", col, value)
			}
			f := ex.Fields
			if f.Specialties == nil || f.Procedures == nil || f.Capabilities == nil || f.EquipmentMentions == nil {
				t.Errorf("Expected non-nil sets for %s=%.20q", col, value)
			}
			for _, set := range [][]string{f.Specialties, f.Procedures, f.Capabilities, f.EquipmentMentions} {
				for _, item := range set {
					if item == "" || item != strings.TrimSpace(item) {
						t.Errorf("Set entry %q is blank or untrimmed for %s", item, col)
					}
				}
			}
			if f.BedCount.Known && f.BedCount.Value < 0 {
				t.Errorf("Negative bed count for %q", value)
			}
		}
	}
}
