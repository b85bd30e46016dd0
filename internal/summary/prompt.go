package summary

import (
	"fmt"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
)

// SystemPromptFacility frames the narrative for one facility.
const SystemPromptFacility = `You are a healthcare intelligence analyst for the Virtue Foundation, analyzing healthcare facilities in Ghana.
You are given structured data extracted from a facility's CSV record plus rule-based analysis findings.
Write a concise but insightful summary (3-5 paragraphs) that:
1. Describes the facility's capabilities and role in its region
2. Highlights any RED FLAGS or anomalies (equipment mismatches, suspicious claims, missing data)
3. Assesses whether the facility's claimed specialties are realistic given its infrastructure
4. Notes workforce signals (visiting vs permanent staff, staffing adequacy)
5. Identifies what this facility is critical for in its region (sole provider of certain specialties?)
Be direct and analytical. Use specific data points. Flag concerns clearly.`

// SystemPromptDesert frames the narrative for one medical-desert zone.
const SystemPromptDesert = `You are a healthcare intelligence analyst for the Virtue Foundation, identifying medical deserts in Ghana.
You are given data about an underserved area including population, nearest facilities, and missing specialties.
Write a concise but powerful summary (3-5 paragraphs) that:
1. Explains why this area is a medical desert and the human impact
2. Quantifies the gap (distance to care, population affected, missing capabilities)
3. Identifies the most urgent unmet needs
4. Suggests specific, actionable interventions prioritized by impact
5. Notes any compounding factors (geography, seasonal access, cross-border issues)
Be direct and evidence-based. This analysis will be used by NGO planners to allocate resources.`

// BuildPrompt returns the system and user prompts for a record.
func BuildPrompt(req model.NarrativeRequest) (system, user string) {
	if req.Kind == model.KindDesert {
		return SystemPromptDesert, desertPrompt(req)
	}
	return SystemPromptFacility, facilityPrompt(req)
}

func facilityPrompt(req model.NarrativeRequest) string {
	f := model.StructuredFields{}
	if req.Fields != nil {
		f = *req.Fields
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Facility: %s\n", req.Name)
	fmt.Fprintf(&b, "Location: %s, %s\n", orUnknown(f.City), orUnknown(f.Region))
	fmt.Fprintf(&b, "Type: %s\n", orUnknown(f.FacilityType))
	fmt.Fprintf(&b, "Bed Capacity: %s\n", f.BedCount)
	fmt.Fprintf(&b, "Doctors: %s\n", f.DoctorCount)
	fmt.Fprintf(&b, "Specialties (%d): %s\n", len(f.Specialties), strings.Join(head(f.Specialties, 15), ", "))
	if len(f.EquipmentMentions) > 0 {
		fmt.Fprintf(&b, "Equipment listed: %s\n", strings.Join(head(f.EquipmentMentions, 10), ", "))
	} else {
		b.WriteString("Equipment listed: NONE reported\n")
	}
	fmt.Fprintf(&b, "Key capabilities: %s\n", strings.Join(head(f.Capabilities, 6), "; "))
	fmt.Fprintf(&b, "Description: %s\n", truncate(f.Narrative, 300))
	writeFindings(&b, req)
	return b.String()
}

func desertPrompt(req model.NarrativeRequest) string {
	d := model.DesertRecord{Name: req.Name}
	if req.Desert != nil {
		d = *req.Desert
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Medical Desert: %s\n", d.Name)
	fmt.Fprintf(&b, "Region: %s\n", orUnknown(d.Region))
	fmt.Fprintf(&b, "Population: ~%d\n", d.Population)
	fmt.Fprintf(&b, "Nearest Facility: %s (%s)\n", orUnknown(d.NearestFacility), d.Distance.Raw)
	fmt.Fprintf(&b, "Missing Specialties: %s\n", strings.Join(d.MissingSpecialties, ", "))
	fmt.Fprintf(&b, "Context: %s\n", d.Context)
	writeFindings(&b, req)
	return b.String()
}

func writeFindings(b *strings.Builder, req model.NarrativeRequest) {
	b.WriteString("\nRule-based analysis findings:\n")
	for _, f := range req.Findings {
		fmt.Fprintf(b, "\n[%s] %s: %s", strings.ToUpper(string(f.Severity)), f.Rule, f.Statement)
	}
	for _, a := range req.Anomalies {
		fmt.Fprintf(b, "\n[%s] %s: %s", strings.ToUpper(string(a.Severity)), a.Rule, a.Statement)
	}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
