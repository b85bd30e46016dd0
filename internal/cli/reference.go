package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carescope/internal/reference"
)

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Inspect the reference tables",
	Long: `Reference tables drive every rule: specialty synonyms, the specialty to
equipment/capability signal map, the equipment lexicon, capability claims,
desert tiers, keywords and thresholds. They are built in and can be
overridden per section with a YAML file.`,
}

var referenceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective reference tables as YAML",
	Long: `Print the reference tables in the same YAML shape that --reference and
reference.path accept. Redirect the output to a file to start an override.`,
	Example: `  carescope reference show > tables.yaml
  carescope analyze facilities.csv --reference tables.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		data, err := ref.YAML()
		if err != nil {
			return fmt.Errorf("error marshaling reference tables: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(referenceCmd)
	referenceCmd.AddCommand(referenceShowCmd)
	referenceShowCmd.Flags().StringVar(&referencePath, "reference", "", "reference table override YAML")
}
