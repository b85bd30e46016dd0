package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carescope/internal/ingest"
	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/pipeline"
	"github.com/ppiankov/carescope/internal/reference"
)

var inspectRows []int

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <facilities.csv>",
	Short: "Print the analysis of selected facility rows",
	Long: `Inspect runs the deterministic part of the analysis (extraction, Q1-Q9
rules and anomaly detection) and prints the output records of the selected
rows as JSON. Every row is still read so regional comparisons see the whole
file. Geocoding, narratives and deserts are skipped.

Example:
  carescope inspect facilities.csv --row 4
  carescope inspect facilities.csv --row 4,17 | jq '.[].anomalies'`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntSliceVar(&inspectRows, "row", nil, "0-based data rows to print (required)")
	_ = inspectCmd.MarkFlagRequired("row")
	inspectCmd.Flags().StringVar(&referencePath, "reference", "", "reference table override YAML")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("reference") {
		cfg.Reference.Path = referencePath
	}
	ref, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		return fmt.Errorf("load reference tables: %w", err)
	}

	rows, err := ingest.LoadFacilities(args[0], ingest.CSVOptions{Rows: inspectRows})
	if err != nil {
		return fmt.Errorf("load facilities: %w", err)
	}

	runner := pipeline.NewRunner(ref, pipeline.Options{
		Workers: cfg.Concurrency.Workers,
		Logger:  logger,
	})
	result, err := runner.Run(cmd.Context(), rows, nil)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := []model.OutputRecord{}
	out = append(out, result.Collection.Records...)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
