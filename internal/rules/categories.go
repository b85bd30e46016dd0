package rules

import (
	"fmt"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

var (
	srcSpecialties = []string{model.ColSpecialties}
	srcLocation    = []string{model.ColAddressCity, model.ColAddressRegion}
	srcAddress     = []string{model.ColAddressLine1, model.ColAddressCity, model.ColAddressRegion, model.ColAddressCountry}
	srcBeds        = []string{model.ColBedsTotal, model.ColCapacity}
	srcDoctors     = []string{model.ColDoctorsCount, model.ColNumberDoctors}
	srcFreeText    = []string{model.ColCapability, model.ColDescription, model.ColOrganizationDescription}
)

func sources(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func finding(c model.Category, rule string, sev model.Severity, src []string, format string, args ...interface{}) model.Finding {
	return model.Finding{
		Category:  c,
		Rule:      rule,
		Severity:  sev,
		Statement: fmt.Sprintf(format, args...),
		Sources:   append([]string(nil), src...),
	}
}

// Q1: basic queries and lookups.
func (e *Engine) basicLookups(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields
	th := e.ref.Thresholds

	if n := len(f.Specialties); n > 0 {
		more := "."
		if n > th.SpecialtyListLimit {
			more = fmt.Sprintf(" and %d more.", n-th.SpecialtyListLimit)
		}
		out = append(out, finding(model.CategoryBasicLookups, "Q1.1", model.SeverityInfo, srcSpecialties,
			"This facility reports %d specialties: %s%s", n, readableList(f.Specialties, th.SpecialtyListLimit), more))
	}

	if r := in.Region; r != nil {
		band := "has limited healthcare infrastructure"
		switch {
		case r.Facilities > th.WellServedRegion:
			band = "is one of the most served regions"
		case r.Facilities > th.ModerateRegion:
			band = "has moderate coverage"
		}
		out = append(out, finding(model.CategoryBasicLookups, "Q1.5", model.SeverityInfo, srcLocation,
			"%s has %d facilities in the dataset (%d hospitals). This %s.", r.Name, r.Facilities, r.Hospitals, band))
	}
	return out
}

// Q2: geospatial.
func (e *Engine) geospatial(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields

	if f.City == "" && f.Region == "" {
		out = append(out, finding(model.CategoryGeospatial, "Q2.1", model.SeverityWarning, srcLocation,
			"No city or region reported. The facility cannot be placed reliably on a map."))
	}
	if f.Address != "" {
		out = append(out, finding(model.CategoryGeospatial, "Q2.2", model.SeverityInfo, srcAddress,
			"Location resolved from address: %s.", f.Address))
	}
	return out
}

// Q3: validation and verification.
func (e *Engine) validation(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields

	evidence := append(anomalyEvidence(f), f.Narrative)
	for _, rs := range resolved(e.ref, f.Specialties) {
		found, missing := signalsFound(e.ref, rs.Entry.Signals(), evidence)
		if len(missing) == 0 || len(missing) <= len(found) {
			continue
		}
		support := "No supporting evidence found in capability, equipment or description text."
		if len(found) > 0 {
			support = fmt.Sprintf("Only evidence of: %s.", strings.Join(found, ", "))
		}
		out = append(out, finding(model.CategoryValidation, "Q3.1", model.SeverityWarning,
			sources(srcSpecialties, []string{model.ColEquipment, model.ColCapability, model.ColProcedure, model.ColDescription}),
			"Unverified specialty: claims %s but no mention of %s. %s",
			reference.Readable(rs.Declared), strings.Join(missing, ", "), support))
	}

	corroboration := append(explicitEquipment(f), f.Procedures...)
	for _, capability := range f.Capabilities {
		var unsupported []string
		for _, claim := range e.ref.CapabilityClaims {
			if len(reference.MatchAny(claim.Triggers, capability)) == 0 {
				continue
			}
			supported := false
			for _, term := range claim.Evidence {
				if hasSignal(e.ref, term, corroboration) {
					supported = true
					break
				}
			}
			if !supported {
				unsupported = append(unsupported, claim.Claim)
			}
		}
		if len(unsupported) > 0 {
			out = append(out, finding(model.CategoryValidation, "Q3.2", model.SeverityWarning,
				[]string{model.ColCapability, model.ColEquipment, model.ColProcedure},
				"Capability %q implies %s, but no corroborating equipment or procedure is listed.",
				capability, strings.Join(unsupported, " and ")))
		}
	}

	if n := len(f.Specialties); n > e.ref.Thresholds.SpecialtyBreadth && !f.DoctorCount.Known {
		out = append(out, finding(model.CategoryValidation, "Q3.3", model.SeverityAlert, sources(srcSpecialties, srcDoctors),
			"Claims %d specialties but reports no doctor count. Breadth of claims cannot be matched to staffing.", n))
	}
	return out
}

// Q4: misrepresentation and anomaly detection. Claim-versus-evidence flags
// come from the AnomalyDetector and are reported separately.
func (e *Engine) misrepresentation(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields
	th := e.ref.Thresholds
	n := len(f.Specialties)

	switch {
	case f.BedCount.Known && f.BedCount.Value < th.SmallFacilityBeds && n > th.SmallFacilitySpecialties:
		out = append(out, finding(model.CategoryAnomaly, "Q4.4", model.SeverityAlert, sources(srcBeds, srcSpecialties),
			"Claims %d specialties with only %d beds. A facility this size would typically support 3-5 specialties; the breadth of claims (%s...) is disproportionate to stated capacity.",
			n, f.BedCount.Value, readableList(f.Specialties, 5)))
	case !f.BedCount.Known && n > th.SpecialtyBreadth:
		out = append(out, finding(model.CategoryAnomaly, "Q4.4", model.SeverityWarning, sources(srcBeds, srcSpecialties),
			"Claims %d specialties but reports no bed capacity. Without size data the breadth of claims cannot be verified.", n))
	}

	if f.BedCount.Known && f.BedCount.Value >= th.LargeFacilityBeds && !f.DoctorCount.Known {
		out = append(out, finding(model.CategoryAnomaly, "Q4.7", model.SeverityWarning, sources(srcBeds, srcDoctors),
			"Reports %d beds but no doctor count. Missing staffing data weakens confidence in capacity claims.", f.BedCount.Value))
	}

	var advanced []string
	for _, s := range f.Specialties {
		if e.ref.IsComplex(s) {
			advanced = append(advanced, s)
		}
	}
	if len(advanced) > 0 && len(f.EquipmentMentions) == 0 {
		out = append(out, finding(model.CategoryAnomaly, "Q4.8", model.SeverityAlert, sources(srcSpecialties, []string{model.ColEquipment}),
			"Claims advanced specialties (%s) but lists no equipment. These require significant infrastructure such as operating theatres, ICU and specialized imaging.",
			readableList(advanced, 0)))
	}

	texts := append(freeText(f), f.Procedures...)
	aroundClock := len(reference.MatchAny(e.ref.Keywords.RoundTheClock, texts...)) > 0 ||
		len(reference.MatchAny(e.ref.Keywords.Emergency, texts...)) > 0
	if len(advanced) > 0 && !aroundClock {
		out = append(out, finding(model.CategoryAnomaly, "Q4.9", model.SeverityWarning, sources(srcSpecialties, srcFreeText),
			"Claims advanced specialties (%s) but mentions no 24-hour or emergency service. Complex procedures require round-the-clock post-operative care.",
			readableList(advanced, 3)))
	}
	return out
}

// Q5: service classification.
func (e *Engine) classification(in Input) []model.Finding {
	var out []model.Finding
	texts := freeText(in.Fields)
	kw := e.ref.Keywords

	itinerant := reference.MatchAny(kw.Itinerant, texts...)
	permanent := reference.MatchAny(kw.Permanent, texts...)
	switch {
	case len(itinerant) > 0:
		stmt := fmt.Sprintf("Itinerant signals detected: '%s'. Some services may be delivered through periodic outreach rather than permanent service lines.",
			strings.Join(itinerant, ", "))
		if len(permanent) > 0 {
			stmt += fmt.Sprintf(" Permanent signals also found: '%s'.", strings.Join(permanent, ", "))
		}
		f := finding(model.CategoryClassification, "Q5.1", model.SeverityWarning, srcFreeText, "%s", stmt)
		f.Tags = []string{"itinerant"}
		out = append(out, f)
	case len(permanent) > 0:
		f := finding(model.CategoryClassification, "Q5.1", model.SeverityInfo, srcFreeText,
			"Services appear permanently staffed. Indicators: '%s'.", strings.Join(permanent, ", "))
		f.Tags = []string{"permanent"}
		out = append(out, f)
	}

	if referral := reference.MatchAny(kw.Referral, texts...); len(referral) > 0 {
		f := finding(model.CategoryClassification, "Q5.2", model.SeverityWarning, srcFreeText,
			"Referral language detected: '%s'. Some claimed capabilities may be referred to other facilities rather than delivered in-house.",
			strings.Join(referral, ", "))
		f.Tags = []string{"referral"}
		out = append(out, f)
	}
	return out
}

// Q6: workforce distribution.
func (e *Engine) workforce(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields
	docs, beds := f.DoctorCount, f.BedCount

	if docs.Known {
		stmt := fmt.Sprintf("Facility reports %d doctors.", docs.Value)
		if beds.Known && beds.Value > 0 && docs.Value > 0 {
			stmt += fmt.Sprintf(" For %d beds this is a doctor-to-bed ratio of %.2f.", beds.Value, float64(docs.Value)/float64(beds.Value))
		}
		out = append(out, finding(model.CategoryWorkforce, "Q6.1", model.SeverityInfo, sources(srcDoctors, srcBeds), "%s", stmt))
	} else {
		out = append(out, finding(model.CategoryWorkforce, "Q6.1", model.SeverityWarning, srcDoctors,
			"No doctor count reported. Staffing adequacy cannot be assessed."))
	}

	switch {
	case docs.Known && beds.Known && beds.Value > 0 && docs.Value > beds.Value:
		out = append(out, finding(model.CategoryWorkforce, "Q6.2", model.SeverityWarning, sources(srcDoctors, srcBeds),
			"%d doctors for %d beds (ratio %.2f) is outside the plausible band and suggests visiting-specialist arrangements.",
			docs.Value, beds.Value, float64(docs.Value)/float64(beds.Value)))
	case docs.Known && docs.Value > 0 && beds.Known && beds.Value == 0:
		out = append(out, finding(model.CategoryWorkforce, "Q6.2", model.SeverityWarning, sources(srcDoctors, srcBeds),
			"%d doctors reported with zero beds, which suggests visiting-specialist or outpatient-only arrangements.", docs.Value))
	case docs.Known && docs.Value == 0 && beds.Known && beds.Value == 0:
		out = append(out, finding(model.CategoryWorkforce, "Q6.2", model.SeverityWarning, sources(srcDoctors, srcBeds),
			"Zero doctors and zero beds reported. Any listed services must rely on visiting staff or the counts are placeholders."))
	}

	if visiting := reference.MatchAny(e.ref.Keywords.Visiting, freeText(f)...); len(visiting) > 0 {
		out = append(out, finding(model.CategoryWorkforce, "Q6.4", model.SeverityWarning, srcFreeText,
			"Visiting specialist signals detected: '%s'. Service continuity may be fragile if tied to individual practitioners.",
			strings.Join(visiting, ", ")))
	}
	return out
}

// Q7: resource distribution and gaps.
func (e *Engine) resourceGaps(in Input) []model.Finding {
	f := in.Fields
	if len(f.Specialties) == 0 {
		return nil
	}

	if r := in.Region; r != nil {
		var sole []string
		for _, s := range f.Specialties {
			if r.Providers(s) <= 1 {
				sole = append(sole, s)
			}
		}
		if len(sole) == 0 {
			return nil
		}
		return []model.Finding{finding(model.CategoryResourceGaps, "Q7.5", model.SeverityInfo, sources(srcSpecialties, srcLocation),
			"Sole provider in %s of: %s. Loss of this facility would create critical coverage gaps.",
			r.Name, readableList(sole, 5))}
	}

	if len(f.Specialties) == 1 {
		return []model.Finding{finding(model.CategoryResourceGaps, "Q7.5", model.SeverityInfo, srcSpecialties,
			"Offers a single specialty (%s). Without regional context it is treated as a potential sole provider.",
			reference.Readable(f.Specialties[0]))}
	}
	return nil
}

// Q8: NGO and sustainability.
func (e *Engine) ngo(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields
	kw := e.ref.Keywords
	texts := append(freeText(f), f.Name)
	src := sources([]string{model.ColName, model.ColOperatorType}, srcFreeText)

	ngoSignals := reference.MatchAny(kw.NGO, texts...)
	operator := e.ref.IsNGOOperator(f.OperatorType)
	if len(ngoSignals) > 0 || operator {
		shown := ngoSignals
		if len(shown) > 3 {
			shown = shown[:3]
		}
		detail := strings.Join(shown, ", ")
		if detail == "" {
			detail = "operator type " + f.OperatorType
		}
		out = append(out, finding(model.CategoryNGO, "Q8.1", model.SeverityInfo, src,
			"NGO/mission signals detected: '%s'. NGO-operated facilities may depend on external funding cycles.", detail))
	}

	faith := reference.MatchAny(kw.Faith, texts...)
	if operator || len(ngoSignals) > 0 || len(faith) > 0 {
		if len(reference.MatchAny(kw.Funding, freeText(f)...)) == 0 {
			out = append(out, finding(model.CategoryNGO, "Q8.2", model.SeverityWarning, src,
				"NGO or faith-based affiliation with no reported funding or partnership. Sustainability cannot be assessed."))
		}
	}
	return out
}

// Q9: unmet needs.
func (e *Engine) unmetNeeds(in Input) []model.Finding {
	var out []model.Finding
	f := in.Fields

	if r := in.Region; r != nil && r.Facilities <= e.ref.Thresholds.LimitedRegion {
		out = append(out, finding(model.CategoryUnmetNeeds, "Q9.1", model.SeverityInfo, srcLocation,
			"%s has only %d facilities in the dataset. Infrastructure in the area is limited.", r.Name, r.Facilities))
	}

	if f.FacilityType == "hospital" && !e.hasEmergency(f) {
		out = append(out, finding(model.CategoryUnmetNeeds, "Q9.2", model.SeverityWarning,
			sources([]string{model.ColFacilityType, model.ColSpecialties}, srcFreeText),
			"Listed as a hospital but reports no emergency capability."))
	}
	return out
}

func (e *Engine) hasEmergency(f model.StructuredFields) bool {
	for _, s := range f.Specialties {
		if entry, ok := e.ref.Lookup(s); ok && entry.Key == "emergencyMedicine" {
			return true
		}
	}
	texts := append(freeText(f), f.Procedures...)
	return len(reference.MatchAny(e.ref.Keywords.Emergency, texts...)) > 0
}
