// Package extract turns one raw facility row into normalized structured fields.
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// Extraction is the result of extracting one record.
type Extraction struct {
	Raw    model.RawRecord
	Fields model.StructuredFields

	// Consulted lists the columns that were read and held a value.
	Consulted []string
	Malformed []*MalformedFieldError
}

// Extractor parses raw rows. It is safe for concurrent use.
type Extractor struct {
	ref *reference.Tables
}

// New creates an extractor backed by the given reference tables.
func New(ref *reference.Tables) *Extractor {
	return &Extractor{ref: ref}
}

// Extract never fails: unparseable fields degrade to empty or absent values
// and are reported in Malformed.
func (e *Extractor) Extract(raw model.RawRecord) (ex *Extraction) {
	ex = &Extraction{Raw: raw}
	defer func() {
		if r := recover(); r != nil {
			ex.Malformed = append(ex.Malformed, malformed("record", "", fmt.Errorf("extraction panic: %v", r)))
			ensureSets(&ex.Fields)
		}
	}()

	f := &ex.Fields
	f.Name = e.text(ex, model.ColName)
	f.FacilityType = strings.ToLower(e.text(ex, model.ColFacilityType))
	f.OperatorType = strings.ToLower(e.text(ex, model.ColOperatorType))

	f.Specialties = e.list(ex, model.ColSpecialties, e.scanSpecialties)
	f.Procedures = e.list(ex, model.ColProcedure, nil)
	f.Capabilities = e.list(ex, model.ColCapability, nil)
	explicit := e.list(ex, model.ColEquipment, e.scanEquipment)
	f.EquipmentMentions, f.InferredEquipment = e.mergeEquipment(explicit, f.Capabilities, f.Procedures)

	f.BedCount = e.count(ex, model.ColBedsTotal, model.ColCapacity)
	f.DoctorCount = e.count(ex, model.ColDoctorsCount, model.ColNumberDoctors)

	line1 := e.text(ex, model.ColAddressLine1)
	f.City = e.text(ex, model.ColAddressCity)
	f.Region = e.text(ex, model.ColAddressRegion)
	f.Country = e.text(ex, model.ColAddressCountry)
	f.Address = collapse(strings.Join([]string{line1, f.City, f.Region, f.Country}, " "))

	desc := plainText(e.text(ex, model.ColDescription))
	org := plainText(e.text(ex, model.ColOrganizationDescription))
	f.Narrative = strings.ToLower(collapse(desc + " " + org))

	ensureSets(f)
	return ex
}

// ensureSets keeps list fields non-nil so they encode as [].
func ensureSets(f *model.StructuredFields) {
	for _, s := range []*[]string{&f.Specialties, &f.Procedures, &f.Capabilities, &f.EquipmentMentions} {
		if *s == nil {
			*s = []string{}
		}
	}
}

func (e *Extractor) consult(ex *Extraction, col string) string {
	v := ex.Raw.Value(col)
	if v != "" {
		ex.Consulted = append(ex.Consulted, col)
	}
	return v
}

func (e *Extractor) text(ex *Extraction, col string) string {
	return collapse(e.consult(ex, col))
}

// list parses a JSON-array-shaped column. scan is the vocabulary fallback for
// free text; nil means free text is kept as a single entry.
func (e *Extractor) list(ex *Extraction, col string, scan func(string) []string) []string {
	v := e.consult(ex, col)
	if v == "" {
		return nil
	}

	var set model.StringSet
	if looksJSON(v) {
		var decoded interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			addJSON(&set, decoded)
			return set.Slice()
		}
		ex.Malformed = append(ex.Malformed, malformed(col, v, errBrokenArray))
		if strings.HasPrefix(v, "[") || strings.Contains(v, `","`) {
			for _, part := range splitBroken(v) {
				set.Add(part)
			}
			return set.Slice()
		}
	}

	if scan != nil {
		for _, term := range scan(v) {
			set.Add(term)
		}
		return set.Slice()
	}
	set.Add(v)
	return set.Slice()
}

func looksJSON(v string) bool {
	switch v[0] {
	case '[', '{', '"':
		return true
	}
	return false
}

func addJSON(set *model.StringSet, v interface{}) {
	switch x := v.(type) {
	case nil:
	case string:
		set.Add(x)
	case float64:
		set.Add(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		set.Add(strconv.FormatBool(x))
	case []interface{}:
		for _, item := range x {
			addJSON(set, item)
		}
	default:
		if b, err := json.Marshal(x); err == nil {
			set.Add(string(b))
		}
	}
}

// splitBroken recovers entries from a truncated or badly quoted array.
func splitBroken(v string) []string {
	v = strings.Trim(strings.TrimSpace(v), "[]")
	var out []string
	for _, part := range strings.Split(v, `","`) {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part = strings.TrimSpace(part); part != "" && !strings.EqualFold(part, "null") {
			out = append(out, part)
		}
	}
	return out
}

// scanSpecialties finds table specialties and vocabulary terms in free text.
// Matches are reported with their canonical camelCase code.
func (e *Extractor) scanSpecialties(text string) []string {
	var out []string
	seen := make(map[string]bool)
	try := func(code string, spellings ...string) {
		if seen[code] {
			return
		}
		for _, s := range spellings {
			if reference.Match(text, s) {
				seen[code] = true
				out = append(out, code)
				return
			}
		}
	}
	for _, entry := range e.ref.Specialties {
		try(entry.Key, append(spellings(entry.Key), entry.Aliases...)...)
	}
	for _, code := range e.ref.Vocabulary {
		try(code, spellings(code)...)
	}
	return out
}

// spellings returns a code as written and split into lowercase words.
func spellings(code string) []string {
	words := strings.ToLower(strings.ReplaceAll(reference.Readable(code), "&", "and"))
	if words == strings.ToLower(code) {
		return []string{code}
	}
	return []string{code, words}
}

// scanEquipment finds lexicon terms in free text and reports canonical names.
func (e *Extractor) scanEquipment(text string) []string {
	var out []string
	for _, entry := range e.ref.Equipment {
		if reference.Match(text, entry.Canonical) || len(reference.MatchAny(entry.Triggers, text)) > 0 {
			out = append(out, entry.Canonical)
		}
	}
	return out
}

// mergeEquipment appends lexicon matches from capability and procedure text
// after the explicit equipment entries.
func (e *Extractor) mergeEquipment(explicit, capabilities, procedures []string) (all, inferred []string) {
	var set model.StringSet
	for _, item := range explicit {
		set.Add(item)
	}
	texts := append(append([]string{}, capabilities...), procedures...)
	for _, entry := range e.ref.Equipment {
		if len(reference.MatchAny(entry.Triggers, texts...)) == 0 {
			continue
		}
		if set.Add(entry.Canonical) {
			inferred = append(inferred, entry.Canonical)
		}
	}
	return set.Slice(), inferred
}

// count reads the first non-empty column among cols as a non-negative integer.
func (e *Extractor) count(ex *Extraction, cols ...string) model.Count {
	var col, v string
	for _, c := range cols {
		if v = e.consult(ex, c); v != "" {
			col = c
			break
		}
	}
	if v == "" {
		return model.UnknownCount()
	}

	n, err := parseCount(v)
	if err != nil {
		ex.Malformed = append(ex.Malformed, malformed(col, v, err))
		return model.UnknownCount()
	}
	return model.KnownCount(n)
}

func parseCount(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, errNegative
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errNotNumber
	}
	if f < 0 {
		return 0, errNegative
	}
	return int(f), nil
}
