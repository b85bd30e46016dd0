// Package geocode resolves facility addresses to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
)

// ErrUnresolved reports that an address could not be turned into coordinates.
var ErrUnresolved = errors.New("geocode: address unresolved")

// UnresolvedError carries the address and, when the lookup itself failed, the cause.
// errors.Is(err, ErrUnresolved) holds for every UnresolvedError.
type UnresolvedError struct {
	Address string
	Err     error
}

func (e *UnresolvedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("geocode %q: no match", e.Address)
}

func (e *UnresolvedError) Unwrap() error { return e.Err }

func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

// Result is one lookup outcome. Found is false when the service has no match.
type Result struct {
	Found       bool              `json:"found"`
	Coordinates model.Coordinates `json:"coordinates"`
	DisplayName string            `json:"displayName,omitempty"`
}

// Geocoder looks up one address.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (Result, error)
}

// Resolve returns coordinates for address, or nil and an *UnresolvedError.
// There is no default coordinate.
func Resolve(ctx context.Context, g Geocoder, address string) (*model.Coordinates, error) {
	address = strings.TrimSpace(address)
	if g == nil || address == "" {
		return nil, &UnresolvedError{Address: address}
	}
	res, err := g.Lookup(ctx, address)
	if err != nil {
		return nil, &UnresolvedError{Address: address, Err: err}
	}
	if !res.Found {
		return nil, &UnresolvedError{Address: address}
	}
	c := res.Coordinates
	return &c, nil
}
