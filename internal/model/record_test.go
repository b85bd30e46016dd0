package model

import "testing"

func TestClean(t *testing.T) {
	tests := map[string]string{
		"  Tamale ": "Tamale",
		"NULL":      "",
		"[]":        "",
		" [ ] ":     "",
		`["x"]`:     `["x"]`,
		"":          "",
	}
	for in, want := range tests {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q): expected %q, got %q", in, want, got)
		}
	}
}
