package ingest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/carescope/internal/desert"
	"github.com/ppiankov/carescope/internal/model"
)

//go:embed deserts.yaml
var builtinDeserts []byte

type desertFile struct {
	Deserts []model.DesertRecord `yaml:"deserts"`
}

// LoadDeserts reads curated desert zones from path. An empty path loads the
// built-in Ghana list.
func LoadDeserts(path string) ([]model.DesertRecord, error) {
	if path == "" {
		return ParseDeserts("built-in", builtinDeserts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deserts file: %w", err)
	}
	return ParseDeserts(path, data)
}

// BuiltinDeserts returns the embedded desert list as YAML.
func BuiltinDeserts() []byte {
	return append([]byte(nil), builtinDeserts...)
}

// ParseDeserts decodes and validates a deserts document. Unknown keys are
// rejected, omitted severities are scored, and every invalid entry is reported.
func ParseDeserts(name string, data []byte) ([]model.DesertRecord, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file desertFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode deserts: %w", name, err)
	}

	var errs []error
	seen := make(map[string]bool, len(file.Deserts))
	out := make([]model.DesertRecord, 0, len(file.Deserts))
	for i, d := range file.Deserts {
		if d.Severity == 0 {
			d.Severity = desert.ScoreSeverity(d)
		}
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i+1, err))
			continue
		}
		if seen[d.ID()] {
			errs = append(errs, fmt.Errorf("entry %d: duplicate desert %q", i+1, d.Name))
			continue
		}
		seen[d.ID()] = true
		out = append(out, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
