package extract

import (
	"errors"
	"fmt"
)

var (
	errBrokenArray = errors.New("unparseable JSON array")
	errNotNumber   = errors.New("not an integer")
	errNegative    = errors.New("negative count")
)

// MalformedFieldError reports a field that could not be parsed as structured
// data. It is recovered: the field degrades to an empty set or absent value.
type MalformedFieldError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %s (%q): %v", e.Field, e.Value, e.Err)
}

func (e *MalformedFieldError) Unwrap() error { return e.Err }

func malformed(field, value string, err error) *MalformedFieldError {
	const max = 80
	r := []rune(value)
	if len(r) > max {
		value = string(r[:max]) + "…"
	}
	return &MalformedFieldError{Field: field, Value: value, Err: err}
}
