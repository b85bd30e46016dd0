package model

import "strings"

// RawRecord is one row of source data, keyed by column name.
// It is immutable once built: downstream stages only read it.
type RawRecord struct {
	row     int
	columns []string
	values  map[string]string
}

// NewRawRecord builds a record from parallel header/value slices.
// Extra values without a header are dropped; missing values read as absent.
func NewRawRecord(row int, header []string, values []string) RawRecord {
	r := RawRecord{
		row:     row,
		columns: make([]string, 0, len(header)),
		values:  make(map[string]string, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if _, dup := r.values[col]; dup {
			continue
		}
		r.columns = append(r.columns, col)
		if i < len(values) {
			r.values[col] = values[i]
		} else {
			r.values[col] = ""
		}
	}
	return r
}

// RawRecordFromMap is a convenience for tests and curated inputs.
// Columns are kept in the order given by keys.
func RawRecordFromMap(row int, keys []string, m map[string]string) RawRecord {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return NewRawRecord(row, keys, values)
}

// Row returns the 1-based source line (header is line 1).
func (r RawRecord) Row() int { return r.row }

// Columns returns the column names in source order.
func (r RawRecord) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Get returns the raw value for a column and whether the column exists.
func (r RawRecord) Get(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Value returns the cleaned value: trimmed, with literal "null" and "[]"
// treated as empty.
func (r RawRecord) Value(col string) string {
	return Clean(r.values[col])
}

// First returns the first column among names holding a non-empty cleaned value.
func (r RawRecord) First(names ...string) (col string, value string) {
	for _, name := range names {
		if v := r.Value(name); v != "" {
			return name, v
		}
	}
	return "", ""
}

// Clean trims a raw value and maps the empty markers "null" and "[]" to
// the empty string.
func Clean(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "null") || strings.Join(strings.Fields(v), "") == "[]" {
		return ""
	}
	return v
}
