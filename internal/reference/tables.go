// Package reference holds the immutable lookup tables every rule consults:
// specialty signal requirements, the equipment lexicon, keyword sets,
// desert recommendation tiers and numeric thresholds.
package reference

import (
	"sort"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
)

// SpecialtyEntry lists the evidence a declared specialty should be backed by.
type SpecialtyEntry struct {
	Key        string   `yaml:"key"`
	Aliases    []string `yaml:"aliases,omitempty"`
	Equipment  []string `yaml:"equipment,omitempty"`
	Capability []string `yaml:"capability,omitempty"`
}

// Kinds returns the signal kinds this entry defines, equipment first.
func (e SpecialtyEntry) Kinds() []model.SignalKind {
	var kinds []model.SignalKind
	if len(e.Equipment) > 0 {
		kinds = append(kinds, model.SignalEquipment)
	}
	if len(e.Capability) > 0 {
		kinds = append(kinds, model.SignalCapability)
	}
	return kinds
}

// Signals returns equipment terms followed by capability terms.
func (e SpecialtyEntry) Signals() []string {
	out := make([]string, 0, len(e.Equipment)+len(e.Capability))
	out = append(out, e.Equipment...)
	return append(out, e.Capability...)
}

// LexiconEntry maps a canonical term to the substrings that trigger it.
type LexiconEntry struct {
	Canonical string   `yaml:"canonical"`
	Triggers  []string `yaml:"triggers"`
}

// CapabilityClaim is a capability phrase and the evidence that corroborates it.
type CapabilityClaim struct {
	Claim    string   `yaml:"claim"`
	Triggers []string `yaml:"triggers"`
	Evidence []string `yaml:"evidence"`
}

// Tier maps a minimum desert severity to a recommendation.
type Tier struct {
	Min            int            `yaml:"min"`
	Name           string         `yaml:"name"`
	Recommendation string         `yaml:"recommendation"`
	Severity       model.Severity `yaml:"severity"`
}

// Keywords are the phrase sets used by classification rules.
type Keywords struct {
	Itinerant     []string `yaml:"itinerant"`
	Permanent     []string `yaml:"permanent"`
	Referral      []string `yaml:"referral"`
	Visiting      []string `yaml:"visiting"`
	NGO           []string `yaml:"ngo"`
	Faith         []string `yaml:"faith"`
	Funding       []string `yaml:"funding"`
	RoundTheClock []string `yaml:"round_the_clock"`
	Emergency     []string `yaml:"emergency"`
}

// Thresholds are the numeric cut-offs used by rules.
type Thresholds struct {
	SpecialtyBreadth         int     `yaml:"specialty_breadth"`          // Q3.3 and Q4.4 without beds
	SmallFacilityBeds        int     `yaml:"small_facility_beds"`        // Q4.4
	SmallFacilitySpecialties int     `yaml:"small_facility_specialties"` // Q4.4
	LargeFacilityBeds        int     `yaml:"large_facility_beds"`        // Q4.7
	WellServedRegion         int     `yaml:"well_served_region"`         // Q1.5
	ModerateRegion           int     `yaml:"moderate_region"`            // Q1.5
	LimitedRegion            int     `yaml:"limited_region"`             // Q9.1
	MobileClinicKm           float64 `yaml:"mobile_clinic_km"`
	SpecialtyListLimit       int     `yaml:"specialty_list_limit"`
}

// Tables is loaded once per run and only read afterwards.
type Tables struct {
	Specialties      []SpecialtyEntry  `yaml:"specialties"`
	Equipment        []LexiconEntry    `yaml:"equipment"`
	Vocabulary       []string          `yaml:"vocabulary"`
	CapabilityClaims []CapabilityClaim `yaml:"capability_claims"`
	Complex          []string          `yaml:"complex_specialties"`
	NGOOperators     []string          `yaml:"ngo_operator_types"`
	Keywords         Keywords          `yaml:"keywords"`
	Tiers            []Tier            `yaml:"tiers"`
	Thresholds       Thresholds        `yaml:"thresholds"`

	names    []string       // normalized keys and aliases, sorted
	byName   map[string]int // normalized name -> index into Specialties
	triggers map[string][]string
	complex  map[string]struct{}
}

// build prepares lookup indexes. It must run before the tables are shared.
func (t *Tables) build() {
	t.byName = make(map[string]int)
	for i, e := range t.Specialties {
		for _, n := range append([]string{e.Key}, e.Aliases...) {
			k := Normalize(n)
			if k == "" {
				continue
			}
			if _, dup := t.byName[k]; !dup {
				t.byName[k] = i
			}
		}
	}
	t.names = make([]string, 0, len(t.byName))
	for k := range t.byName {
		t.names = append(t.names, k)
	}
	sort.Strings(t.names)

	t.triggers = make(map[string][]string, len(t.Equipment))
	for _, e := range t.Equipment {
		k := strings.ToLower(e.Canonical)
		t.triggers[k] = append(t.triggers[k], e.Triggers...)
	}

	t.complex = make(map[string]struct{}, len(t.Complex))
	for _, c := range t.Complex {
		t.complex[Normalize(c)] = struct{}{}
	}

	sort.SliceStable(t.Tiers, func(i, j int) bool { return t.Tiers[i].Min > t.Tiers[j].Min })
}

// Terms expands a signal term with its lexicon triggers, so "ICU" also
// matches "intensive care".
func (t *Tables) Terms(term string) []string {
	out := []string{term}
	return append(out, t.triggers[strings.ToLower(term)]...)
}

// IsComplex reports whether a declared specialty is a high-complexity one.
func (t *Tables) IsComplex(specialty string) bool {
	_, ok := t.complex[Normalize(specialty)]
	return ok
}

// IsNGOOperator reports whether an operator type code denotes an NGO or faith-based operator.
func (t *Tables) IsNGOOperator(operatorType string) bool {
	op := Normalize(operatorType)
	if op == "" {
		return false
	}
	for _, n := range t.NGOOperators {
		if Normalize(n) == op {
			return true
		}
	}
	return false
}

// TierFor returns the recommendation tier for a desert severity.
func (t *Tables) TierFor(severity int) Tier {
	for _, tier := range t.Tiers {
		if severity >= tier.Min {
			return tier
		}
	}
	return t.Tiers[len(t.Tiers)-1]
}
