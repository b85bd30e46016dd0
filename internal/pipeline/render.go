package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/carescope/internal/model"
)

// Renderer turns a collection into its output files.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// JSON encodes the collection with two-space indentation and a trailing newline.
func (r *Renderer) JSON(coll *model.Collection) ([]byte, error) {
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal collection: %w", err)
	}
	return append(data, '\n'), nil
}

// Markdown renders a human-readable digest of the collection.
func (r *Renderer) Markdown(coll *model.Collection) []byte {
	var b bytes.Buffer
	md := coll.Metadata

	b.WriteString("# carescope analysis\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", coll.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", coll.GeneratedAt.UTC().Format(time.RFC3339))
	if md.DataSource != "" {
		fmt.Fprintf(&b, "- Data source: %s\n", md.DataSource)
	}
	fmt.Fprintf(&b, "- Facilities: %d of %d rows analyzed", md.TotalFacilities, md.RowsAnalyzed)
	if md.RecordsSkipped > 0 || md.RecordsFailed > 0 {
		fmt.Fprintf(&b, " (%d skipped, %d failed)", md.RecordsSkipped, md.RecordsFailed)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Medical deserts: %d\n", md.TotalDeserts)
	fmt.Fprintf(&b, "- Alerts: %d, warnings: %d\n\n", md.TotalAlerts, md.TotalWarnings)

	if len(md.Degraded) > 0 {
		b.WriteString("## Degraded records\n\n")
		b.WriteString("| Condition | Records |\n|---|---|\n")
		for _, c := range sortedKeys(md.Degraded) {
			fmt.Fprintf(&b, "| %s | %d |\n", c, md.Degraded[c])
		}
		b.WriteString("\n")
	}

	var deserts, facilities []model.OutputRecord
	for _, rec := range coll.Records {
		switch rec.Kind {
		case model.KindDesert:
			deserts = append(deserts, rec)
		case model.KindFacility:
			if rec.AlertCount+rec.WarningCount > 0 {
				facilities = append(facilities, rec)
			}
		}
	}

	if len(deserts) > 0 {
		sort.SliceStable(deserts, func(i, j int) bool {
			return desertSeverity(deserts[i]) > desertSeverity(deserts[j])
		})
		b.WriteString("## Medical deserts\n\n")
		b.WriteString("| Zone | Region | Severity | Nearest care | Action |\n|---|---|---|---|---|\n")
		for _, rec := range deserts {
			var region, distance string
			if rec.Desert != nil {
				region = rec.Desert.Region
				distance = rec.Desert.Distance.Raw
			}
			fmt.Fprintf(&b, "| %s | %s | %d/10 | %s | %s |\n",
				cell(rec.Name), cell(region), desertSeverity(rec), cell(distance), cell(rec.Recommendation))
		}
		b.WriteString("\n")
	}

	if len(facilities) > 0 {
		sort.SliceStable(facilities, func(i, j int) bool {
			a, c := facilities[i], facilities[j]
			if a.AlertCount != c.AlertCount {
				return a.AlertCount > c.AlertCount
			}
			return a.WarningCount > c.WarningCount
		})
		b.WriteString("## Facilities needing attention\n\n")
		b.WriteString("| Facility | Row | Alerts | Warnings | Anomalies |\n|---|---|---|---|---|\n")
		for _, rec := range facilities {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d |\n",
				cell(displayName(rec)), rec.SourceRow, rec.AlertCount, rec.WarningCount, len(rec.Anomalies))
		}
		b.WriteString("\n")

		for _, rec := range facilities {
			if len(rec.Anomalies) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", displayName(rec))
			for _, a := range rec.Anomalies {
				fmt.Fprintf(&b, "- **%s** %s\n", strings.ToUpper(string(a.Severity)), a.Statement)
			}
			b.WriteString("\n")
		}
	}
	return b.Bytes()
}

// RenderSummary prints the run banner to w.
func (r *Renderer) RenderSummary(w io.Writer, res *Result) {
	s := res.Stats
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Analysis Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run:         %s\n", res.Collection.RunID)
	fmt.Fprintf(w, "  Facilities:  %d\n", s.Facilities)
	fmt.Fprintf(w, "  Deserts:     %d\n", s.Deserts)
	if s.Skipped > 0 || s.Failed > 0 {
		fmt.Fprintf(w, "  Skipped:     %d\n", s.Skipped)
		fmt.Fprintf(w, "  Failed:      %d\n", s.Failed)
	}
	fmt.Fprintf(w, "  Alerts:      %d\n", s.Alerts)
	fmt.Fprintf(w, "  Warnings:    %d\n", s.Warnings)
	for _, c := range sortedKeys(s.Degraded) {
		fmt.Fprintf(w, "  %-20s %d\n", c+":", s.Degraded[c])
	}
	fmt.Fprintf(w, "  Duration:    %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
}

// WriteFile writes data to path through a temp file and rename, so readers
// never see a half-written collection.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_ = tmp.Chmod(0644)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func desertSeverity(rec model.OutputRecord) int {
	if rec.Desert == nil {
		return 0
	}
	return rec.Desert.Severity
}

func displayName(rec model.OutputRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.ID
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
