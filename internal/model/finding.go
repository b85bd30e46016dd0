package model

// Category identifies one of the question categories Q1..Q9.
type Category string

const (
	CategoryBasicLookups   Category = "Q1" // Basic queries & lookups
	CategoryGeospatial     Category = "Q2" // Geospatial queries
	CategoryValidation     Category = "Q3" // Validation & verification
	CategoryAnomaly        Category = "Q4" // Misrepresentation & anomaly detection
	CategoryClassification Category = "Q5" // Service classification & inference
	CategoryWorkforce      Category = "Q6" // Workforce distribution
	CategoryResourceGaps   Category = "Q7" // Resource distribution & gaps
	CategoryNGO            Category = "Q8" // NGO & international organization analysis
	CategoryUnmetNeeds     Category = "Q9" // Unmet needs & demand analysis
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	CategoryBasicLookups,
	CategoryGeospatial,
	CategoryValidation,
	CategoryAnomaly,
	CategoryClassification,
	CategoryWorkforce,
	CategoryResourceGaps,
	CategoryNGO,
	CategoryUnmetNeeds,
}

// Title returns the human-readable category name.
func (c Category) Title() string {
	switch c {
	case CategoryBasicLookups:
		return "Basic Queries & Lookups"
	case CategoryGeospatial:
		return "Geospatial Queries"
	case CategoryValidation:
		return "Validation & Verification"
	case CategoryAnomaly:
		return "Misrepresentation & Anomaly Detection"
	case CategoryClassification:
		return "Service Classification & Inference"
	case CategoryWorkforce:
		return "Workforce Distribution"
	case CategoryResourceGaps:
		return "Resource Distribution & Gaps"
	case CategoryNGO:
		return "NGO & International Organization Analysis"
	case CategoryUnmetNeeds:
		return "Unmet Needs & Demand Analysis"
	default:
		return string(c)
	}
}

// Severity is the ordinal importance of a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// Rank orders severities: info < warning < alert.
func (s Severity) Rank() int {
	switch s {
	case SeverityAlert:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Finding is one rule-category result.
type Finding struct {
	Category  Category `json:"category"`
	Rule      string   `json:"rule"` // Sub-rule id, e.g. "Q3.1"
	Severity  Severity `json:"severity"`
	Statement string   `json:"statement"`
	Sources   []string `json:"sources,omitempty"` // Source field names, for citation
	Tags      []string `json:"tags,omitempty"`    // Classification tags, e.g. "itinerant"
}

// SignalKind names a class of evidence a specialty requires.
type SignalKind string

const (
	SignalEquipment  SignalKind = "equipment"
	SignalCapability SignalKind = "capability"
)

// AnomalyFlag is a claim-versus-evidence mismatch for one declared specialty.
type AnomalyFlag struct {
	Finding
	Specialty string       `json:"specialty"`
	Missing   []SignalKind `json:"missing"`
}

// CountSeverities returns the number of alerts and warnings across findings and flags.
func CountSeverities(findings []Finding, flags []AnomalyFlag) (alerts, warnings int) {
	tally := func(s Severity) {
		switch s {
		case SeverityAlert:
			alerts++
		case SeverityWarning:
			warnings++
		}
	}
	for _, f := range findings {
		tally(f.Severity)
	}
	for _, a := range flags {
		tally(a.Severity)
	}
	return alerts, warnings
}
