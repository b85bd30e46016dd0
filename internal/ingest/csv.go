// Package ingest loads facility rows and curated desert zones.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/carescope/internal/model"
)

// Coordinate columns that bypass geocoding when both hold valid numbers.
var (
	latColumns = []string{"latitude", "lat"}
	lngColumns = []string{"longitude", "lng", "lon"}
)

// FacilityRow is one data row plus any coordinates supplied inline.
type FacilityRow struct {
	Index       int // 0-based data row index
	Record      model.RawRecord
	Coordinates *model.Coordinates

	// ContextOnly rows were not selected for analysis. They still count
	// toward regional comparisons but produce no output record.
	ContextOnly bool
}

// CSVOptions narrows what is analyzed.
type CSVOptions struct {
	// Rows selects data rows by 0-based index. Every row is still read;
	// the others come back ContextOnly. Empty selects every row.
	Rows []int
}

// ErrNoHeader is returned for an empty input.
var ErrNoHeader = errors.New("csv has no header row")

// LoadFacilities reads the CSV file at path.
func LoadFacilities(path string, opts CSVOptions) ([]FacilityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadFacilities(f, opts)
}

// ReadFacilities parses a header row followed by data rows. Ragged rows are
// tolerated: missing cells read as empty and extra cells are dropped.
func ReadFacilities(r io.Reader, opts CSVOptions) ([]FacilityRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = trimBOM(header)

	want := selection(opts.Rows)
	var rows []FacilityRow
	for idx := 0; ; idx++ {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			if want != nil {
				if missing := want.missing(idx); len(missing) > 0 {
					return nil, fmt.Errorf("selected rows %v out of range (%d data rows)", missing, idx)
				}
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", idx, err)
		}
		line, _ := cr.FieldPos(0)
		rec := model.NewRawRecord(line, header, values)
		rows = append(rows, FacilityRow{
			Index:       idx,
			Record:      rec,
			Coordinates: inlineCoordinates(rec),
			ContextOnly: want != nil && !want[idx],
		})
	}
	return rows, nil
}

type rowSet map[int]bool

func selection(rows []int) rowSet {
	if len(rows) == 0 {
		return nil
	}
	s := make(rowSet, len(rows))
	for _, r := range rows {
		s[r] = true
	}
	return s
}

func (s rowSet) missing(total int) []int {
	var out []int
	for r := range s {
		if r < 0 || r >= total {
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}

func inlineCoordinates(rec model.RawRecord) *model.Coordinates {
	_, latRaw := rec.First(latColumns...)
	_, lngRaw := rec.First(lngColumns...)
	if latRaw == "" || lngRaw == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil
	}
	return &model.Coordinates{Lat: lat, Lng: lng}
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
