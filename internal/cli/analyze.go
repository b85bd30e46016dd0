package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/carescope/internal/assemble"
	"github.com/ppiankov/carescope/internal/cache"
	"github.com/ppiankov/carescope/internal/geocode"
	"github.com/ppiankov/carescope/internal/ingest"
	"github.com/ppiankov/carescope/internal/metrics"
	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/pipeline"
	"github.com/ppiankov/carescope/internal/publish"
	"github.com/ppiankov/carescope/internal/reference"
	"github.com/ppiankov/carescope/internal/summary"
	"github.com/ppiankov/carescope/internal/worker"
)

var (
	desertsPath   string
	noDeserts     bool
	rowSelection  []int
	referencePath string
	outputDir     string
	outputFile    string
	markdown      bool
	dataSource    string

	geocodeEnabled bool
	geocodeURL     string
	cacheBackend   string
	noCache        bool

	llmEnabled  bool
	llmProvider string
	llmModel    string

	s3Enabled bool
	s3Bucket  string
	s3Prefix  string

	metricsFile string
	workers     int
	runTimeout  time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <facilities.csv>",
	Short: "Analyze facility rows and medical deserts into one JSON collection",
	Long: `Analyze reads a facility CSV and a list of medical-desert zones and writes
one JSON collection for the map layer:
- Normalize specialties, procedures, equipment and capability fields
- Run the Q1-Q9 question categories on every facility
- Flag specialties claimed without supporting equipment or capability
- Score each desert zone and recommend an intervention tier
- Optionally geocode addresses and add AI narratives

Example:
  carescope analyze facilities.csv
  carescope analyze facilities.csv --rows 0,4,17 --markdown
  carescope analyze facilities.csv --deserts zones.yaml --geocode --llm --llm-provider gemini
  carescope analyze facilities.csv --s3 --s3-bucket maps --metrics-file /var/lib/node_exporter/carescope.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&desertsPath, "deserts", "", "medical-desert YAML file (default: built-in list)")
	analyzeCmd.Flags().BoolVar(&noDeserts, "no-deserts", false, "skip medical-desert evaluation")
	analyzeCmd.Flags().IntSliceVar(&rowSelection, "rows", nil, "analyze only these 0-based data rows")
	analyzeCmd.Flags().StringVar(&referencePath, "reference", "", "reference table override YAML")

	// Output flags
	analyzeCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory")
	analyzeCmd.Flags().StringVar(&outputFile, "output", "", "output JSON file name")
	analyzeCmd.Flags().BoolVar(&markdown, "markdown", false, "also write a Markdown digest")
	analyzeCmd.Flags().StringVar(&dataSource, "data-source", "", "data source label recorded in metadata")
	analyzeCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this text file")

	// Geocoding flags
	analyzeCmd.Flags().BoolVar(&geocodeEnabled, "geocode", false, "geocode facilities without inline coordinates")
	analyzeCmd.Flags().StringVar(&geocodeURL, "geocode-url", "", "Nominatim-compatible base URL")
	analyzeCmd.Flags().StringVar(&cacheBackend, "cache-backend", "", "geocode cache backend (disk, sqlite)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the geocode cache")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI narrative generation")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, gemini, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")

	// Publishing flags
	analyzeCmd.Flags().BoolVar(&s3Enabled, "s3", false, "upload the collection to S3")
	analyzeCmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket")
	analyzeCmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "S3 key prefix")

	// Run flags
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent workers")
	analyzeCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "whole-run deadline; unfinished records are skipped")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	csvPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, cfg)
	if err := applyAPIKeys(cfg); err != nil {
		return err
	}

	// Reference tables are fatal: nothing runs on a bad configuration.
	ref, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		return fmt.Errorf("load reference tables: %w", err)
	}

	rows, err := ingest.LoadFacilities(csvPath, ingest.CSVOptions{Rows: rowSelection})
	if err != nil {
		return fmt.Errorf("load facilities: %w", err)
	}
	var deserts []model.DesertRecord
	if !noDeserts {
		deserts, err = ingest.LoadDeserts(desertsPath)
		if err != nil {
			return fmt.Errorf("load deserts: %w", err)
		}
	}

	jsonPath := filepath.Join(cfg.Output.Dir, cfg.Output.File)
	stderr := cmd.ErrOrStderr()
	printBanner(stderr, cfg, csvPath, len(rows), len(deserts), jsonPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		Workers:      cfg.Concurrency.Workers,
		Timeout:      cfg.Run.Timeout,
		DataSource:   cfg.Output.DataSource,
		ExcerptLimit: cfg.Output.ExcerptLimit,
		Recorder:     metrics.NewRecorder(),
		Logger:       logger,
	}

	limiter := sharedLimiter(cfg)

	if cfg.Geocode.Enabled {
		geocoder, closeGeocoder, err := buildGeocoder(cfg, limiter)
		if err != nil {
			return err
		}
		defer closeGeocoder()
		opts.Geocoder = geocoder
	}

	if cfg.LLM.Enabled {
		s, err := summary.NewSummarizer(ctx, summary.ConfigFromModel(cfg.LLM), limiter, logger)
		switch {
		case err != nil:
			// Narratives are optional; every record is marked summary_unavailable.
			fmt.Fprintf(stderr, "Warning: Failed to initialize LLM provider: %v\n", err)
		case s.IsEnabled():
			opts.Narrator = s
		}
	}

	result, err := pipeline.NewRunner(ref, opts).Run(ctx, rows, deserts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	files, err := writeOutputs(result.Collection, jsonPath, cfg.Output.Markdown)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(stderr, "✓ Wrote %s\n", f.path)
	}

	if cfg.Output.S3.Enabled {
		if err := publishOutputs(ctx, stderr, cfg, result.Collection.RunID, files); err != nil {
			return err
		}
	}

	if cfg.Output.MetricsFile != "" {
		if err := opts.Recorder.WriteFile(cfg.Output.MetricsFile); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "✓ Wrote metrics: %s\n", cfg.Output.MetricsFile)
	}

	pipeline.NewRenderer().RenderSummary(stderr, result)
	return nil
}

// applyAnalyzeFlags lets explicitly set flags override the merged config.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("reference") {
		cfg.Reference.Path = referencePath
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("output") {
		cfg.Output.File = outputFile
	}
	if flags.Changed("markdown") {
		cfg.Output.Markdown = markdown
	}
	if flags.Changed("data-source") {
		cfg.Output.DataSource = dataSource
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = metricsFile
	}
	if flags.Changed("geocode") {
		cfg.Geocode.Enabled = geocodeEnabled
	}
	if flags.Changed("geocode-url") {
		cfg.Geocode.BaseURL = geocodeURL
	}
	if flags.Changed("cache-backend") {
		cfg.Cache.Backend = cacheBackend
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("llm") {
		cfg.LLM.Enabled = llmEnabled
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("s3") {
		cfg.Output.S3.Enabled = s3Enabled
	}
	if flags.Changed("s3-bucket") {
		cfg.Output.S3.Bucket = s3Bucket
	}
	if flags.Changed("s3-prefix") {
		cfg.Output.S3.Prefix = s3Prefix
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if flags.Changed("timeout") {
		cfg.Run.Timeout = runTimeout
	}
}

// applyAPIKeys fills provider credentials from the conventional variables
// when the config does not carry one.
func applyAPIKeys(cfg *model.Config) error {
	if !cfg.LLM.Enabled {
		return nil
	}
	switch summary.CanonicalProvider(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "gemini":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// sharedLimiter returns one limiter for every outbound collaborator. The
// geocoding host and the narrative provider get their configured rates;
// anything else is unlimited.
func sharedLimiter(cfg *model.Config) *worker.Limiter {
	limiter := worker.NewLimiter(0, 1)
	if u, err := url.Parse(cfg.Geocode.BaseURL); err == nil && u.Host != "" && cfg.Geocode.RateLimit > 0 {
		limiter.SetHostRate(u.Host, cfg.Geocode.RateLimit, 1)
	}
	// Narrate waits on the name the provider reports, not the alias it was configured by.
	if name := summary.CanonicalProvider(cfg.LLM.Provider); name != "" && cfg.LLM.RateLimit > 0 {
		limiter.SetHostRate(name, cfg.LLM.RateLimit, 1)
	}
	return limiter
}

// buildGeocoder wires the Nominatim client behind the cache.
func buildGeocoder(cfg *model.Config, limiter *worker.Limiter) (geocode.Geocoder, func(), error) {
	client, err := geocode.NewNominatim(geocode.OptionsFromConfig(cfg.Geocode, limiter, logger))
	if err != nil {
		return nil, nil, fmt.Errorf("geocoder: %w", err)
	}
	if !cfg.Cache.Enabled {
		return client, func() {}, nil
	}

	c, err := cache.Open(cache.Options{
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
		TTL:     cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open geocode cache: %w", err)
	}
	closeCache := func() {
		if err := c.Close(); err != nil {
			logger.Warn("close geocode cache", zap.Error(err))
		}
	}
	return geocode.NewCached(client, c, cfg.Cache.TTL, logger), closeCache, nil
}

type writtenFile struct {
	path string
	file publish.File
}

func writeOutputs(coll *model.Collection, jsonPath string, withMarkdown bool) ([]writtenFile, error) {
	renderer := pipeline.NewRenderer()

	data, err := renderer.JSON(coll)
	if err != nil {
		return nil, fmt.Errorf("render JSON: %w", err)
	}
	if err := pipeline.WriteFile(jsonPath, data); err != nil {
		return nil, fmt.Errorf("render JSON: %w", err)
	}
	files := []writtenFile{{
		path: jsonPath,
		file: publish.File{Name: filepath.Base(jsonPath), Body: data, ContentType: "application/json"},
	}}

	if withMarkdown {
		mdPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".md"
		md := renderer.Markdown(coll)
		if err := pipeline.WriteFile(mdPath, md); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		files = append(files, writtenFile{
			path: mdPath,
			file: publish.File{Name: filepath.Base(mdPath), Body: md, ContentType: "text/markdown; charset=utf-8"},
		})
	}
	return files, nil
}

func publishOutputs(ctx context.Context, w io.Writer, cfg *model.Config, runID string, files []writtenFile) error {
	if cfg.Output.S3.Bucket == "" {
		return errors.New("s3 upload enabled but no bucket configured (--s3-bucket or output.s3.bucket)")
	}
	p, err := publish.NewS3Publisher(ctx, publish.ConfigFromModel(cfg.Output.S3), logger)
	if err != nil {
		return fmt.Errorf("s3 publisher: %w", err)
	}
	uploads := make([]publish.File, len(files))
	for i, f := range files {
		uploads[i] = f.file
	}
	keys, err := p.Publish(ctx, runID, uploads)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintf(w, "✓ Uploaded s3://%s/%s\n", cfg.Output.S3.Bucket, k)
	}
	return nil
}

func printBanner(w io.Writer, cfg *model.Config, csvPath string, rows, deserts int, jsonPath string) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  carescope Analysis\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Input file:   %s (%d rows)\n", csvPath, rows)
	fmt.Fprintf(w, "  Deserts:      %d\n", deserts)
	fmt.Fprintf(w, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(w, "  Timeout:      %v\n", cfg.Run.Timeout)
	fmt.Fprintf(w, "  Output:       %s\n", jsonPath)
	if cfg.Geocode.Enabled {
		fmt.Fprintf(w, "  Geocoder:     %s\n", cfg.Geocode.BaseURL)
	}
	if cfg.LLM.Enabled {
		fmt.Fprintf(w, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(w, "\n")
}

var _ assemble.Narrator = (*summary.Summarizer)(nil)
