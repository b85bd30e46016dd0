package rules

import (
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// hasSignal reports whether term, or any lexicon trigger for it, occurs in texts.
func hasSignal(ref *reference.Tables, term string, texts []string) bool {
	return len(reference.MatchAny(ref.Terms(term), texts...)) > 0
}

// signalsFound splits terms into those present in texts and those missing.
func signalsFound(ref *reference.Tables, terms, texts []string) (found, missing []string) {
	for _, term := range terms {
		if hasSignal(ref, term, texts) {
			found = append(found, term)
		} else {
			missing = append(missing, term)
		}
	}
	return found, missing
}

// anomalyEvidence is capabilities, equipment mentions and procedures.
func anomalyEvidence(f model.StructuredFields) []string {
	out := make([]string, 0, len(f.Capabilities)+len(f.EquipmentMentions)+len(f.Procedures))
	out = append(out, f.Capabilities...)
	out = append(out, f.EquipmentMentions...)
	return append(out, f.Procedures...)
}

// explicitEquipment drops mentions that were inferred from capability text.
func explicitEquipment(f model.StructuredFields) []string {
	inferred := make(map[string]bool, len(f.InferredEquipment))
	for _, e := range f.InferredEquipment {
		inferred[strings.ToLower(e)] = true
	}
	var out []string
	for _, e := range f.EquipmentMentions {
		if !inferred[strings.ToLower(e)] {
			out = append(out, e)
		}
	}
	return out
}

// freeText is the capability list plus the description narrative.
func freeText(f model.StructuredFields) []string {
	out := append([]string{}, f.Capabilities...)
	if f.Narrative != "" {
		out = append(out, f.Narrative)
	}
	return out
}

// resolved returns declared specialties that resolve to a table entry,
// one per entry, in declaration order.
func resolved(ref *reference.Tables, specialties []string) []resolvedSpecialty {
	var out []resolvedSpecialty
	seen := make(map[string]bool)
	for _, s := range specialties {
		entry, ok := ref.Lookup(s)
		if !ok || seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true
		out = append(out, resolvedSpecialty{Declared: s, Entry: entry})
	}
	return out
}

type resolvedSpecialty struct {
	Declared string
	Entry    reference.SpecialtyEntry
}

func readableList(items []string, limit int) string {
	shown := items
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	out := make([]string, len(shown))
	for i, s := range shown {
		out[i] = reference.Readable(s)
	}
	return strings.Join(out, ", ")
}
