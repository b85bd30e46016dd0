// Package assemble merges extraction, rule findings, coordinates and optional
// narrative text into immutable output records.
package assemble

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/carescope/internal/desert"
	"github.com/ppiankov/carescope/internal/extract"
	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/rules"
)

// DefaultExcerptLimit bounds citation excerpts, in runes.
const DefaultExcerptLimit = 160

// Narrator produces optional narrative text for a record.
type Narrator interface {
	Narrate(ctx context.Context, req model.NarrativeRequest) (model.Narrative, error)
}

// FacilityInput is everything known about one facility row.
type FacilityInput struct {
	Extraction  *extract.Extraction
	Evaluation  rules.Evaluation
	Coordinates *model.Coordinates
}

// DesertInput is one evaluated desert zone.
type DesertInput struct {
	Record     model.DesertRecord
	Evaluation desert.Result
}

// Assembler builds output records. It is safe for concurrent use.
type Assembler struct {
	narrator     Narrator
	excerptLimit int
	log          *zap.Logger
}

// New creates an assembler. A nil narrator disables narratives; records are
// then not marked summary_unavailable.
func New(narrator Narrator, excerptLimit int, log *zap.Logger) *Assembler {
	if excerptLimit <= 0 {
		excerptLimit = DefaultExcerptLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{narrator: narrator, excerptLimit: excerptLimit, log: log}
}

// AssembleFacility builds the output record for one facility. Narrative
// failures only degrade the record; findings are never affected.
func (a *Assembler) AssembleFacility(ctx context.Context, in FacilityInput) model.OutputRecord {
	ex := in.Extraction
	fields := ex.Fields

	rec := model.OutputRecord{
		ID:          "facility_" + strconv.Itoa(ex.Raw.Row()),
		Name:        fields.Name,
		Kind:        model.KindFacility,
		Coordinates: in.Coordinates,
		Fields:      &fields,
		Findings:    group(in.Evaluation.Findings),
		Anomalies:   nonNilFlags(in.Evaluation.Anomalies),
		SourceRow:   ex.Raw.Row(),
	}
	rec.AlertCount, rec.WarningCount = model.CountSeverities(in.Evaluation.Findings, in.Evaluation.Anomalies)
	rec.Citations = a.facilityCitations(ex, in.Evaluation)

	if len(ex.Malformed) > 0 {
		rec.Degraded = append(rec.Degraded, model.DegradedMalformedField)
	}
	if rec.Coordinates == nil {
		rec.Degraded = append(rec.Degraded, model.DegradedGeocodeUnresolved)
	}

	rec.Narrative = a.narrate(ctx, model.NarrativeRequest{
		Kind:      model.KindFacility,
		Name:      fields.Name,
		Fields:    &fields,
		Findings:  in.Evaluation.Findings,
		Anomalies: in.Evaluation.Anomalies,
	})
	if rec.Narrative == nil && a.narrator != nil {
		rec.Degraded = append(rec.Degraded, model.DegradedSummaryUnavailable)
	}
	return rec
}

// AssembleDesert builds the output record for one desert zone.
func (a *Assembler) AssembleDesert(ctx context.Context, in DesertInput) model.OutputRecord {
	d := in.Record
	d.Severity = in.Evaluation.Severity
	coords := d.Coordinates

	rec := model.OutputRecord{
		ID:              d.ID(),
		Name:            d.Name,
		Kind:            model.KindDesert,
		Coordinates:     &coords,
		Desert:          &d,
		Findings:        group(in.Evaluation.Findings),
		Anomalies:       []model.AnomalyFlag{},
		Recommendation:  in.Evaluation.Recommendation,
		Recommendations: in.Evaluation.Recommendations,
	}
	rec.AlertCount, rec.WarningCount = model.CountSeverities(in.Evaluation.Findings, nil)
	rec.Citations = a.desertCitations(d, in.Evaluation.Findings)

	rec.Narrative = a.narrate(ctx, model.NarrativeRequest{
		Kind:     model.KindDesert,
		Name:     d.Name,
		Desert:   &d,
		Findings: in.Evaluation.Findings,
	})
	if rec.Narrative == nil && a.narrator != nil {
		rec.Degraded = append(rec.Degraded, model.DegradedSummaryUnavailable)
	}
	return rec
}

// narrate calls the narrator, absorbing errors, empty text and panics.
func (a *Assembler) narrate(ctx context.Context, req model.NarrativeRequest) (out *model.Narrative) {
	if a.narrator == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("narrator panicked", zap.String("record", req.Name), zap.Any("panic", r))
			out = nil
		}
	}()

	n, err := a.narrator.Narrate(ctx, req)
	if err != nil {
		a.log.Debug("narrative unavailable", zap.String("record", req.Name), zap.Error(err))
		return nil
	}
	if n.Text == "" {
		return nil
	}
	return &n
}

// group buckets findings by category, keeping category order and the order
// within each category. Categories without findings are omitted.
func group(findings []model.Finding) []model.CategoryFindings {
	byCat := make(map[model.Category][]model.Finding)
	for _, f := range findings {
		byCat[f.Category] = append(byCat[f.Category], f)
	}
	out := make([]model.CategoryFindings, 0, len(byCat))
	for _, c := range model.Categories {
		if fs, ok := byCat[c]; ok {
			out = append(out, model.CategoryFindings{Category: c, Title: c.Title(), Findings: fs})
		}
	}
	return out
}

func nonNilFlags(flags []model.AnomalyFlag) []model.AnomalyFlag {
	if flags == nil {
		return []model.AnomalyFlag{}
	}
	return flags
}

// facilityCitations pairs every consulted or cited column with an excerpt of
// its raw value. Columns missing from the source header are dropped.
func (a *Assembler) facilityCitations(ex *extract.Extraction, ev rules.Evaluation) []model.Citation {
	fields := make(map[string]struct{})
	for _, c := range ex.Consulted {
		fields[c] = struct{}{}
	}
	for _, f := range ev.Findings {
		for _, s := range f.Sources {
			fields[s] = struct{}{}
		}
	}
	for _, f := range ev.Anomalies {
		for _, s := range f.Sources {
			fields[s] = struct{}{}
		}
	}

	out := make([]model.Citation, 0, len(fields))
	for field := range fields {
		raw, ok := ex.Raw.Get(field)
		if !ok || ex.Raw.Value(field) == "" {
			continue
		}
		out = append(out, model.Citation{Field: field, Excerpt: Excerpt(raw, a.excerptLimit)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func (a *Assembler) desertCitations(d model.DesertRecord, findings []model.Finding) []model.Citation {
	fields := make(map[string]struct{})
	for _, f := range findings {
		for _, s := range f.Sources {
			fields[s] = struct{}{}
		}
	}

	out := make([]model.Citation, 0, len(fields))
	for field := range fields {
		v, ok := d.FieldValue(field)
		if !ok {
			continue
		}
		out = append(out, model.Citation{Field: field, Excerpt: Excerpt(v, a.excerptLimit)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Excerpt trims s to at most limit runes, cutting on a rune boundary and
// marking the cut with "…".
func Excerpt(s string, limit int) string {
	s = model.Clean(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s…", string(r[:limit]))
}
