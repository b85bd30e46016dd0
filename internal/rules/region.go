package rules

import (
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// RegionContext describes the facilities of one region in the current run.
// It is built once before evaluation and only read by rules.
type RegionContext struct {
	Name       string
	Facilities int
	Hospitals  int
	providers  map[string]int // normalized specialty -> facilities declaring it
}

// Providers returns how many facilities in the region declare specialty.
func (c *RegionContext) Providers(specialty string) int {
	if c == nil {
		return 0
	}
	return c.providers[reference.Normalize(specialty)]
}

// RegionIndex groups run facilities by region and by city.
type RegionIndex struct {
	byRegion map[string]*RegionContext
	byCity   map[string]*RegionContext
}

// BuildRegionIndex indexes all extracted fields of a run.
func BuildRegionIndex(all []model.StructuredFields) *RegionIndex {
	ix := &RegionIndex{
		byRegion: make(map[string]*RegionContext),
		byCity:   make(map[string]*RegionContext),
	}
	for _, f := range all {
		if f.Region != "" {
			ix.add(ix.byRegion, f.Region, f)
		}
		if f.City != "" {
			ix.add(ix.byCity, f.City, f)
		}
	}
	return ix
}

func (ix *RegionIndex) add(m map[string]*RegionContext, name string, f model.StructuredFields) {
	key := strings.ToLower(name)
	c, ok := m[key]
	if !ok {
		c = &RegionContext{Name: name, providers: make(map[string]int)}
		m[key] = c
	}
	c.Facilities++
	if f.FacilityType == "hospital" {
		c.Hospitals++
	}
	seen := make(map[string]bool)
	for _, s := range f.Specialties {
		k := reference.Normalize(s)
		if k != "" && !seen[k] {
			seen[k] = true
			c.providers[k]++
		}
	}
}

// For returns the context of f's region, falling back to its city.
// It returns nil when neither is known.
func (ix *RegionIndex) For(f model.StructuredFields) *RegionContext {
	if ix == nil {
		return nil
	}
	if c, ok := ix.byRegion[strings.ToLower(f.Region)]; ok && f.Region != "" {
		return c
	}
	if c, ok := ix.byCity[strings.ToLower(f.City)]; ok && f.City != "" {
		return c
	}
	return nil
}
