// Package desert evaluates curated medical-desert zones. It only looks at the
// zone's own fields, never at facility rows.
package desert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// Result is the evaluation of one desert zone.
type Result struct {
	Findings        []model.Finding
	Severity        int
	Tier            reference.Tier
	Recommendation  string
	Recommendations []string
}

// Evaluator applies the desert rule set.
type Evaluator struct {
	ref *reference.Tables
}

// NewEvaluator creates an evaluator over the given tables.
func NewEvaluator(ref *reference.Tables) *Evaluator {
	return &Evaluator{ref: ref}
}

// Evaluate produces geospatial (Q2), NGO coverage (Q8) and unmet-needs (Q9)
// findings in category order. A zero severity is scored from the record.
func (e *Evaluator) Evaluate(d model.DesertRecord) Result {
	severity := d.Severity
	if severity == 0 {
		severity = ScoreSeverity(d)
	}
	tier := e.ref.TierFor(severity)

	res := Result{
		Severity:        severity,
		Tier:            tier,
		Recommendation:  tier.Recommendation,
		Recommendations: e.recommendations(d),
	}
	res.Findings = append(res.Findings, coldSpot(d))
	res.Findings = append(res.Findings, ngoCoverage(d))
	res.Findings = append(res.Findings, capacityGap(d, severity, tier), recommendation(d, severity, tier))
	return res
}

func coldSpot(d model.DesertRecord) model.Finding {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", d.Name)
	if d.Region != "" {
		fmt.Fprintf(&b, " in %s", d.Region)
	}
	b.WriteString(" is a confirmed healthcare cold spot. ")

	nearest := d.NearestFacility
	if nearest == "" {
		nearest = "the nearest facility"
	}
	if d.Distance.Qualitative() {
		fmt.Fprintf(&b, "The nearest facility, %s, is local but has severe capacity limitations (%s). ", nearest, d.Distance.Raw)
	} else {
		fmt.Fprintf(&b, "The nearest facility with meaningful capacity is %s, %s away. ", nearest, d.Distance.Raw)
	}
	fmt.Fprintf(&b, "Population of ~%s people", thousands(d.Population))
	if len(d.MissingSpecialties) > 0 {
		fmt.Fprintf(&b, " has no access to: %s.", readable(d.MissingSpecialties, 4))
	} else {
		b.WriteString(" is underserved.")
	}

	return model.Finding{
		Category:  model.CategoryGeospatial,
		Rule:      "Q2.3",
		Severity:  model.SeverityAlert,
		Statement: b.String(),
		Sources: []string{model.DesertFieldDistance, model.DesertFieldNearestFacility,
			model.DesertFieldPopulation, model.DesertFieldMissingSpecialties},
	}
}

func ngoCoverage(d model.DesertRecord) model.Finding {
	f := model.Finding{
		Category: model.CategoryNGO,
		Rule:     "Q8.3",
		Sources:  []string{model.DesertFieldNGOPresence, model.DesertFieldPopulation},
	}
	switch {
	case d.NGOPresence == nil:
		f.Severity = model.SeverityAlert
		f.Statement = fmt.Sprintf("No NGO or international organization presence is recorded for %s. "+
			"A population of ~%s with significant unmet needs makes it a high-priority target for development organizations.",
			d.Name, thousands(d.Population))
	case !*d.NGOPresence:
		f.Severity = model.SeverityAlert
		f.Statement = fmt.Sprintf("No NGO or international organization works in %s despite evident need. "+
			"A population of ~%s with significant unmet needs makes it a high-priority target for development organizations.",
			d.Name, thousands(d.Population))
	default:
		f.Severity = model.SeverityInfo
		f.Statement = fmt.Sprintf("At least one NGO or mission-affiliated provider works in %s, but coverage gaps remain significant for the population of ~%s.",
			d.Name, thousands(d.Population))
	}
	return f
}

func capacityGap(d model.DesertRecord, severity int, tier reference.Tier) model.Finding {
	reach := fmt.Sprintf("nearest hospital %s away", d.Distance.Raw)
	if d.Distance.Qualitative() {
		reach = fmt.Sprintf("a severely under-resourced local facility (%s)", d.Distance.Raw)
	}
	return model.Finding{
		Category: model.CategoryUnmetNeeds,
		Rule:     "Q9.5",
		Severity: model.SeverityAlert,
		Statement: fmt.Sprintf("Population ~%s with %s. Missing %d critical specialties. Severity %d/10 places it in the %s tier (%s).",
			thousands(d.Population), reach, len(d.MissingSpecialties), severity, tier.Name, tier.Recommendation),
		Sources: []string{model.DesertFieldPopulation, model.DesertFieldDistance,
			model.DesertFieldMissingSpecialties, model.DesertFieldSeverity},
		Tags: []string{tier.Name},
	}
}

func recommendation(d model.DesertRecord, severity int, tier reference.Tier) model.Finding {
	return model.Finding{
		Category:  model.CategoryUnmetNeeds,
		Rule:      "Q9.6",
		Severity:  tier.Severity,
		Statement: fmt.Sprintf("Recommended action for %s (severity %d/10): %s.", d.Name, severity, tier.Recommendation),
		Sources:   []string{model.DesertFieldSeverity},
		Tags:      []string{tier.Name},
	}
}

func (e *Evaluator) recommendations(d model.DesertRecord) []string {
	missing := make(map[string]bool, len(d.MissingSpecialties))
	for _, s := range d.MissingSpecialties {
		missing[reference.Normalize(s)] = true
	}

	var recs []string
	if km, ok := d.Distance.Km(); ok && km > e.ref.Thresholds.MobileClinicKm {
		recs = append(recs, "Deploy mobile health clinics for emergency triage and stabilization")
	}
	recs = append(recs, "Establish telemedicine link to nearest specialist hospital for remote consultation")
	if missing["generalsurgery"] {
		recs = append(recs, "Prioritize surgical capacity: even a minor surgical theatre could save lives in emergency cases")
	}
	if missing["gynecologyandobstetrics"] || missing["pediatrics"] {
		recs = append(recs, "Urgent need for maternal and child health services in a high maternal mortality area")
	}
	if missing["emergencymedicine"] {
		recs = append(recs, "Establish 24/7 emergency stabilization point to reduce transfer mortality")
	}
	if missing["ophthalmology"] {
		recs = append(recs, "Schedule periodic ophthalmology outreach camps (high prevalence of preventable blindness)")
	}
	return append(recs, "Recruit and train community health workers for early detection and referral pathways")
}

// ScoreSeverity derives a 1..10 severity from distance, missing specialties
// and population, for curated zones that do not state one.
func ScoreSeverity(d model.DesertRecord) int {
	severity := 2
	if km, ok := d.Distance.Km(); ok {
		switch {
		case km > 100:
			severity += 3
		case km > 50:
			severity += 2
		case km > 0:
			severity++
		}
	} else {
		severity += 3
	}

	missing := len(d.MissingSpecialties)
	if missing > 3 {
		missing = 3
	}
	severity += missing

	switch {
	case d.Population > 40000:
		severity += 2
	case d.Population > 20000:
		severity++
	}

	if severity > 10 {
		severity = 10
	}
	return severity
}

func readable(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = reference.Readable(s)
	}
	return strings.Join(out, ", ")
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + thousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
