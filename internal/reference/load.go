package reference

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/carescope/internal/model"
)

// ConfigurationError means the reference tables are unusable. It is fatal:
// no record may be processed without valid tables.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("reference tables: %v", e.Err)
	}
	return fmt.Sprintf("reference tables %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Load returns the built-in tables when path is empty. Otherwise it reads a
// YAML override on top of the defaults: any top-level section present in the
// file replaces the built-in one.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes YAML table overrides. name is only used in errors.
func Parse(name string, data []byte) (*Tables, error) {
	t := defaultTables()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, &ConfigurationError{Path: name, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := t.validate(); err != nil {
		return nil, &ConfigurationError{Path: name, Err: err}
	}
	t.build()
	return t, nil
}

func (t *Tables) validate() error {
	var errs []error
	if len(t.Specialties) == 0 {
		errs = append(errs, errors.New("specialty signal table is empty"))
	}
	seen := make(map[string]bool)
	for i, e := range t.Specialties {
		key := Normalize(e.Key)
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("specialties[%d]: key required", i))
		case seen[key]:
			errs = append(errs, fmt.Errorf("specialties[%d]: duplicate key %q", i, e.Key))
		case len(e.Equipment) == 0 && len(e.Capability) == 0:
			errs = append(errs, fmt.Errorf("specialty %q: no required signals", e.Key))
		}
		seen[key] = true
		for _, s := range e.Signals() {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Errorf("specialty %q: blank signal term", e.Key))
				break
			}
		}
	}
	for i, e := range t.Equipment {
		if strings.TrimSpace(e.Canonical) == "" {
			errs = append(errs, fmt.Errorf("equipment[%d]: canonical term required", i))
		}
	}
	for i, c := range t.CapabilityClaims {
		if len(c.Triggers) == 0 || len(c.Evidence) == 0 {
			errs = append(errs, fmt.Errorf("capability_claims[%d] %q: triggers and evidence required", i, c.Claim))
		}
	}
	if len(t.Tiers) == 0 {
		errs = append(errs, errors.New("recommendation tiers are empty"))
	}
	mins := make(map[int]bool)
	for _, tier := range t.Tiers {
		if mins[tier.Min] {
			errs = append(errs, fmt.Errorf("tier %q: duplicate minimum %d", tier.Name, tier.Min))
		}
		mins[tier.Min] = true
		if tier.Recommendation == "" {
			errs = append(errs, fmt.Errorf("tier %q: recommendation required", tier.Name))
		}
		switch tier.Severity {
		case model.SeverityInfo, model.SeverityWarning, model.SeverityAlert:
		default:
			errs = append(errs, fmt.Errorf("tier %q: unknown severity %q", tier.Name, tier.Severity))
		}
	}
	th := t.Thresholds
	if th.SpecialtyBreadth <= 0 || th.SmallFacilityBeds <= 0 || th.SmallFacilitySpecialties <= 0 ||
		th.LargeFacilityBeds <= 0 || th.SpecialtyListLimit <= 0 {
		errs = append(errs, errors.New("thresholds must be positive"))
	}
	return errors.Join(errs...)
}

// YAML renders the tables in the same shape Load accepts.
func (t *Tables) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}
