package reference

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minPrefix is the shortest declared name allowed to prefix-match a key.
const minPrefix = 4

// Normalize lowercases s and drops everything but letters and digits,
// so "gynecologyAndObstetrics" and "Gynecology and Obstetrics" agree.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// qualifiers may follow a specialty name without changing which specialty
// it is: "ophthalmologyServices" is ophthalmology, "pediatricSurgery" is not
// pediatrics.
var qualifiers = map[string]bool{
	"service": true, "services": true, "care": true, "department": true,
	"unit": true, "clinic": true, "clinics": true, "center": true,
	"centre": true, "program": true, "programme": true,
}

// Lookup resolves a declared specialty to its table entry. It tries an exact
// key or alias, then the declared name as a prefix of a key (shortest key
// wins, ties to the alphabetically first). Last, a key or alias followed only
// by qualifier words such as "services" or "unit" matches, longest first.
func (t *Tables) Lookup(declared string) (SpecialtyEntry, bool) {
	d := Normalize(declared)
	if d == "" {
		return SpecialtyEntry{}, false
	}
	if i, ok := t.byName[d]; ok {
		return t.Specialties[i], true
	}

	if len(d) >= minPrefix {
		best := ""
		for _, name := range t.names {
			if strings.HasPrefix(name, d) && (best == "" || len(name) < len(best)) {
				best = name
			}
		}
		if best != "" {
			return t.Specialties[t.byName[best]], true
		}
	}

	ws := words(declared)
	for k := len(ws) - 1; k > 0; k-- {
		if !allQualifiers(ws[k:]) {
			break
		}
		if i, ok := t.byName[strings.Join(ws[:k], "")]; ok {
			return t.Specialties[i], true
		}
	}
	return SpecialtyEntry{}, false
}

// words splits s into lowercase words at spaces, punctuation and camelCase
// humps.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !isWord(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0 && !unicode.IsUpper(cur[len(cur)-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}

func allQualifiers(ws []string) bool {
	for _, w := range ws {
		if !qualifiers[w] {
			return false
		}
	}
	return true
}

// Match reports whether term occurs in text as a whole word or phrase,
// ignoring case.
func Match(text, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	text = strings.ToLower(text)
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

// MatchAny returns the terms found in any of texts, in term order.
func MatchAny(terms []string, texts ...string) []string {
	var found []string
	for _, term := range terms {
		for _, text := range texts {
			if Match(text, term) {
				found = append(found, term)
				break
			}
		}
	}
	return found
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWord(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWord(r)
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Readable turns a camelCase code into display text:
// "gynecologyAndObstetrics" becomes "Gynecology & Obstetrics".
func Readable(code string) string {
	if strings.ContainsAny(code, " \t") {
		return code
	}
	var words []string
	var cur []rune
	for i, r := range code {
		if unicode.IsUpper(r) && i > 0 && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	for i, w := range words {
		switch strings.ToLower(w) {
		case "and":
			words[i] = "&"
		case "or":
			words[i] = "/"
		default:
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
		}
	}
	return strings.Join(words, " ")
}
