package model

import (
	"encoding/json"
	"testing"
)

func TestDistance_DecodesOutputJSON(t *testing.T) {
	tests := []struct {
		in          string
		wantRaw     string
		wantKm      float64
		qualitative bool
	}{
		{`"85km"`, "85km", 85, false},
		{`"local/limited"`, "local/limited", 0, true},
		{`120`, "120", 120, false},
		{`""`, "", 0, false},
	}

	for _, tt := range tests {
		var d Distance
		if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
		}
		if d.Raw != tt.wantRaw || d.Qualitative() != tt.qualitative {
			t.Errorf("Unmarshal(%s): expected raw %q qualitative %v, got %q %v", tt.in, tt.wantRaw, tt.qualitative, d.Raw, d.Qualitative())
		}
		if km, ok := d.Km(); ok && km != tt.wantKm {
			t.Errorf("Unmarshal(%s): expected %vkm, got %v", tt.in, tt.wantKm, km)
		}
	}
}

func TestDistance_RejectsGarbage(t *testing.T) {
	for _, in := range []string{`"far away"`, `"-3km"`, `true`} {
		var d Distance
		if err := json.Unmarshal([]byte(in), &d); err == nil {
			t.Errorf("Expected error for %s, got %+v", in, d)
		}
	}
}

func TestDesertRecord_SurvivesOutputEncoding(t *testing.T) {
	dist, err := ParseDistance("85km")
	if err != nil {
		t.Fatal(err)
	}
	in := DesertRecord{Name: "Kadjebi", Severity: 9, Population: 46000, Distance: dist}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out DesertRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if km, ok := out.Distance.Km(); !ok || km != 85 || out.Distance.Raw != "85km" {
		t.Errorf("Expected 85km back, got %+v", out.Distance)
	}
}
