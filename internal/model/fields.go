package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Count is an optional non-negative integer. Zero and unknown are distinct.
type Count struct {
	Value int
	Known bool
}

// KnownCount returns a known count.
func KnownCount(v int) Count { return Count{Value: v, Known: true} }

// UnknownCount returns an absent count.
func UnknownCount() Count { return Count{} }

func (c Count) String() string {
	if !c.Known {
		return "unknown"
	}
	return strconv.Itoa(c.Value)
}

// MarshalJSON encodes absent counts as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON decodes null as absent.
func (c *Count) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Count{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = KnownCount(v)
	return nil
}

// StructuredFields is the normalized view of one RawRecord.
type StructuredFields struct {
	Name              string   `json:"name"`
	Specialties       []string `json:"specialties"`
	Procedures        []string `json:"procedures"`
	Capabilities      []string `json:"capabilities"`
	EquipmentMentions []string `json:"equipmentMentions"`
	// InferredEquipment is the subset of EquipmentMentions inferred from
	// capability and procedure text rather than listed explicitly.
	InferredEquipment []string `json:"inferredEquipment,omitempty"`
	BedCount          Count    `json:"bedCount"`
	DoctorCount       Count    `json:"doctorCount"`
	FacilityType      string   `json:"facilityType,omitempty"`
	OperatorType      string   `json:"operatorType,omitempty"`
	Address           string   `json:"address,omitempty"`
	City              string   `json:"city,omitempty"`
	Region            string   `json:"region,omitempty"`
	Country           string   `json:"country,omitempty"`

	// Narrative is the lowercased description text used by keyword rules.
	Narrative string `json:"-"`
}

// Locality returns region, falling back to city.
func (f StructuredFields) Locality() string {
	if f.Region != "" {
		return f.Region
	}
	return f.City
}

// StringSet accumulates trimmed, non-empty strings, de-duplicated
// case-insensitively. The first spelling wins and insertion order is kept.
type StringSet struct {
	items []string
	seen  map[string]struct{}
}

// Add inserts s unless it is blank or already present. It reports whether s was added.
func (s *StringSet) Add(v string) bool {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return false
	}
	key := strings.ToLower(v)
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Has reports whether v is present, ignoring case.
func (s *StringSet) Has(v string) bool {
	_, ok := s.seen[strings.ToLower(strings.Join(strings.Fields(v), " "))]
	return ok
}

// Len returns the number of items.
func (s *StringSet) Len() int { return len(s.items) }

// Slice returns the items in insertion order. It never returns nil.
func (s *StringSet) Slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
