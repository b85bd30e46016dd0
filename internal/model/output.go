package model

import "time"

// Kind distinguishes facility and desert output records.
type Kind string

const (
	KindFacility Kind = "facility"
	KindDesert   Kind = "desert"
)

// Degraded conditions recorded per output record and counted per run.
const (
	DegradedMalformedField     = "malformed_field"
	DegradedGeocodeUnresolved  = "geocode_unresolved"
	DegradedSummaryUnavailable = "summary_unavailable"
)

// Citation points one consulted source field at a short excerpt of its raw value.
type Citation struct {
	Field   string `json:"field"`
	Excerpt string `json:"excerpt"`
}

// CategoryFindings groups findings for one category.
type CategoryFindings struct {
	Category Category  `json:"category"`
	Title    string    `json:"title"`
	Findings []Finding `json:"findings"`
}

// Narrative is externally generated summary text. It never affects findings.
type Narrative struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Text     string `json:"text"`
}

// OutputRecord is the unit exposed to the visualization layer.
// It is built once by the assembler and not modified afterwards.
type OutputRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Kind        Kind               `json:"kind"`
	Coordinates *Coordinates       `json:"coordinates"`
	Fields      *StructuredFields  `json:"fields,omitempty"`
	Desert      *DesertRecord      `json:"desert,omitempty"`
	Findings    []CategoryFindings `json:"findings"`
	Anomalies   []AnomalyFlag      `json:"anomalies"`
	Narrative   *Narrative         `json:"narrative"`
	Citations   []Citation         `json:"citations"`

	AlertCount   int `json:"alertCount"`
	WarningCount int `json:"warningCount"`

	Recommendation  string   `json:"recommendation,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`

	SourceRow int      `json:"sourceRow,omitempty"`
	Degraded  []string `json:"degraded,omitempty"`
}

// AllFindings flattens grouped findings in category order.
func (r OutputRecord) AllFindings() []Finding {
	var out []Finding
	for _, g := range r.Findings {
		out = append(out, g.Findings...)
	}
	return out
}

// Collection is the persisted output of one run. It replaces the previous run wholesale.
type Collection struct {
	RunID       string         `json:"runId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Records     []OutputRecord `json:"records"`
	Metadata    Metadata       `json:"metadata"`
}

// Metadata summarises a run.
type Metadata struct {
	TotalFacilities    int            `json:"totalFacilities"`
	TotalDeserts       int            `json:"totalDeserts"`
	RowsAnalyzed       int            `json:"rowsAnalyzed"`
	RecordsSkipped     int            `json:"recordsSkipped"`
	RecordsFailed      int            `json:"recordsFailed"`
	TotalAlerts        int            `json:"totalAlerts"`
	TotalWarnings      int            `json:"totalWarnings"`
	Degraded           map[string]int `json:"degraded"`
	QuestionCategories []string       `json:"questionCategories"`
	DataSource         string         `json:"dataSource,omitempty"`
}

// CategoryCatalogue returns "Q1: Basic Queries & Lookups" style labels.
func CategoryCatalogue() []string {
	out := make([]string, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, string(c)+": "+c.Title())
	}
	return out
}

// NarrativeRequest is what a narrator sees for one record: the structured
// input plus the already-computed findings.
type NarrativeRequest struct {
	Kind      Kind
	Name      string
	Fields    *StructuredFields
	Desert    *DesertRecord
	Findings  []Finding
	Anomalies []AnomalyFlag
}
