package rules

import (
	"fmt"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// RuleAnomaly is the sub-rule id of claim-versus-evidence flags.
const RuleAnomaly = "Q4.1"

// AnomalyDetector cross-checks declared specialties against the signals the
// reference table requires for them.
type AnomalyDetector struct {
	ref *reference.Tables
}

// NewAnomalyDetector creates a detector over the given tables.
func NewAnomalyDetector(ref *reference.Tables) *AnomalyDetector {
	return &AnomalyDetector{ref: ref}
}

// Detect emits one alert per resolved specialty whose required signals are
// entirely absent from capabilities, equipment mentions and procedures.
// Specialties missing from the table are skipped.
func (d *AnomalyDetector) Detect(f model.StructuredFields) []model.AnomalyFlag {
	evidence := anomalyEvidence(f)

	var flags []model.AnomalyFlag
	for _, rs := range resolved(d.ref, f.Specialties) {
		signals := rs.Entry.Signals()
		found, _ := signalsFound(d.ref, signals, evidence)
		if len(found) > 0 {
			continue
		}

		missing := rs.Entry.Kinds()
		kinds := make([]string, len(missing))
		for i, k := range missing {
			kinds[i] = string(k)
		}
		flags = append(flags, model.AnomalyFlag{
			Finding: model.Finding{
				Category: model.CategoryAnomaly,
				Rule:     RuleAnomaly,
				Severity: model.SeverityAlert,
				Statement: fmt.Sprintf("Declares %s but shows no %s evidence: none of %s appear in capabilities, equipment or procedures.",
					reference.Readable(rs.Declared), strings.Join(kinds, " or "), strings.Join(signals, ", ")),
				Sources: []string{model.ColSpecialties, model.ColCapability, model.ColEquipment, model.ColProcedure},
			},
			Specialty: rs.Declared,
			Missing:   missing,
		})
	}
	return flags
}
