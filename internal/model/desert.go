package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceQualitative is the marker for a local but severely limited facility.
const DistanceQualitative = "local/limited"

// Distance to the nearest facility. It is either a number of kilometres or
// the qualitative local/limited marker, which is never compared numerically.
type Distance struct {
	Raw         string
	km          float64
	qualitative bool
}

// ParseDistance accepts "85km", "85 km", "85", "local/limited", "local" or "limited".
func ParseDistance(raw string) (Distance, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case DistanceQualitative, "local", "limited", "local / limited":
		return Distance{Raw: strings.TrimSpace(raw), qualitative: true}, nil
	case "":
		return Distance{}, fmt.Errorf("empty distance")
	}
	num := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "kilometres"), "km"))
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Distance{}, fmt.Errorf("parse distance %q: %w", raw, err)
	}
	if v < 0 {
		return Distance{}, fmt.Errorf("negative distance %q", raw)
	}
	return Distance{Raw: strings.TrimSpace(raw), km: v}, nil
}

// KmDistance builds a numeric distance, rendering Raw as "<n>km".
func KmDistance(km float64) Distance {
	return Distance{Raw: strconv.FormatFloat(km, 'f', -1, 64) + "km", km: km}
}

// LocalLimited builds the qualitative marker.
func LocalLimited() Distance {
	return Distance{Raw: DistanceQualitative, qualitative: true}
}

// Qualitative reports whether this is the local/limited marker.
func (d Distance) Qualitative() bool { return d.qualitative }

// Km returns the numeric distance. ok is false for the qualitative marker.
func (d Distance) Km() (km float64, ok bool) {
	if d.qualitative {
		return 0, false
	}
	return d.km, true
}

func (d Distance) String() string { return d.Raw }

// MarshalJSON emits the raw text verbatim.
func (d Distance) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Raw)), nil
}

// UnmarshalJSON accepts the raw text written by MarshalJSON or a bare
// number of kilometres. An empty string leaves d zero.
func (d *Distance) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var km float64
		if numErr := json.Unmarshal(data, &km); numErr != nil {
			return fmt.Errorf("distance: %w", err)
		}
		raw = strconv.FormatFloat(km, 'f', -1, 64)
	}
	if strings.TrimSpace(raw) == "" {
		*d = Distance{}
		return nil
	}
	parsed, err := ParseDistance(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML accepts either a bare number or a string.
func (d *Distance) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDistance(node.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the raw text.
func (d Distance) MarshalYAML() (interface{}, error) {
	return d.Raw, nil
}

// Desert record field names, used as citation sources.
const (
	DesertFieldDistance           = "distance"
	DesertFieldNearestFacility    = "nearest_facility"
	DesertFieldPopulation         = "population"
	DesertFieldSeverity           = "severity"
	DesertFieldMissingSpecialties = "missing_specialties"
	DesertFieldNGOPresence        = "ngo_presence"
	DesertFieldContext            = "context"
	DesertFieldRegion             = "region"
)

// DesertRecord is a curated medical-desert zone. It is authored directly,
// not derived from source rows.
type DesertRecord struct {
	Name               string      `json:"name" yaml:"name"`
	Region             string      `json:"region,omitempty" yaml:"region"`
	Coordinates        Coordinates `json:"coordinates" yaml:"coordinates"`
	Severity           int         `json:"severity" yaml:"severity"`
	Population         int         `json:"population" yaml:"population"`
	Distance           Distance    `json:"distance" yaml:"distance"`
	NearestFacility    string      `json:"nearestFacility,omitempty" yaml:"nearest_facility"`
	MissingSpecialties []string    `json:"missingSpecialties" yaml:"missing_specialties"`
	Context            string      `json:"context,omitempty" yaml:"context"`
	// NGOPresence is nil when unknown.
	NGOPresence *bool `json:"ngoPresence,omitempty" yaml:"ngo_presence"`
}

// FieldValue returns the display text of a desert field for citations.
func (d DesertRecord) FieldValue(field string) (string, bool) {
	switch field {
	case DesertFieldDistance:
		return d.Distance.Raw, d.Distance.Raw != ""
	case DesertFieldNearestFacility:
		return d.NearestFacility, d.NearestFacility != ""
	case DesertFieldPopulation:
		return strconv.Itoa(d.Population), true
	case DesertFieldSeverity:
		return strconv.Itoa(d.Severity), true
	case DesertFieldMissingSpecialties:
		return strings.Join(d.MissingSpecialties, ", "), len(d.MissingSpecialties) > 0
	case DesertFieldNGOPresence:
		if d.NGOPresence == nil {
			return "unknown", true
		}
		return strconv.FormatBool(*d.NGOPresence), true
	case DesertFieldContext:
		return d.Context, d.Context != ""
	case DesertFieldRegion:
		return d.Region, d.Region != ""
	}
	return "", false
}

// ID returns a stable identifier derived from the name.
func (d DesertRecord) ID() string {
	return "desert_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(d.Name)), " ", "_")
}

// Validate checks the curated invariants.
func (d DesertRecord) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("desert record: name required")
	}
	if d.Severity < 1 || d.Severity > 10 {
		return fmt.Errorf("desert %q: severity %d outside 1..10", d.Name, d.Severity)
	}
	if d.Population <= 0 {
		return fmt.Errorf("desert %q: population must be positive", d.Name)
	}
	if d.Distance.Raw == "" {
		return fmt.Errorf("desert %q: distance required", d.Name)
	}
	return nil
}
