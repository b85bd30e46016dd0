// Package pipeline orchestrates a complete analysis run: facility rows and
// desert zones in, one output collection out.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/carescope/internal/assemble"
	"github.com/ppiankov/carescope/internal/desert"
	"github.com/ppiankov/carescope/internal/extract"
	"github.com/ppiankov/carescope/internal/geocode"
	"github.com/ppiankov/carescope/internal/ingest"
	"github.com/ppiankov/carescope/internal/metrics"
	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
	"github.com/ppiankov/carescope/internal/rules"
	"github.com/ppiankov/carescope/internal/worker"
)

// Options wires the optional collaborators of a run.
type Options struct {
	Workers      int
	Timeout      time.Duration // Whole-run deadline; zero means none
	DataSource   string
	ExcerptLimit int

	Geocoder geocode.Geocoder  // nil leaves rows without inline coordinates unresolved
	Narrator assemble.Narrator // nil disables narratives
	Recorder *metrics.Recorder // nil records nothing
	Logger   *zap.Logger

	now   func() time.Time
	runID func() string
}

// Runner executes runs. It holds no per-run state and may be reused.
type Runner struct {
	extractor *extract.Extractor
	engine    *rules.Engine
	deserts   *desert.Evaluator
	assembler *assemble.Assembler

	geocoder   geocode.Geocoder
	recorder   *metrics.Recorder
	workers    int
	timeout    time.Duration
	dataSource string
	log        *zap.Logger
	now        func() time.Time
	runID      func() string
}

// NewRunner creates a runner over validated reference tables.
func NewRunner(ref *reference.Tables, opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		extractor:  extract.New(ref),
		engine:     rules.NewEngine(ref),
		deserts:    desert.NewEvaluator(ref),
		assembler:  assemble.New(opts.Narrator, opts.ExcerptLimit, log),
		geocoder:   opts.Geocoder,
		recorder:   opts.Recorder,
		workers:    workers,
		timeout:    opts.Timeout,
		dataSource: opts.DataSource,
		log:        log,
		now:        opts.now,
		runID:      opts.runID,
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.runID == nil {
		r.runID = func() string { return uuid.NewString() }
	}
	return r
}

// Stats summarises one run for the log and the CLI.
type Stats struct {
	Facilities int
	Deserts    int
	Skipped    int
	Failed     int
	Alerts     int
	Warnings   int
	Degraded   map[string]int
	Duration   time.Duration
}

// Result is the output of one run.
type Result struct {
	Collection *model.Collection
	Stats      Stats
}

// streamResult is what one stream hands back to Run.
type streamResult struct {
	records []model.OutputRecord
	skipped int
	failed  int
}

// Run analyses facilities and deserts. Records not started before the
// deadline are skipped; the collection holds whatever was assembled.
// Facility records come first in input order, then deserts in input order.
func (r *Runner) Run(ctx context.Context, facilities []ingest.FacilityRow, deserts []model.DesertRecord) (*Result, error) {
	start := time.Now()
	runID := r.runID()
	log := r.log.With(zap.String("run_id", runID))

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log.Info("run started",
		zap.Int("facilities", len(facilities)),
		zap.Int("deserts", len(deserts)),
		zap.Int("workers", r.workers),
		zap.Duration("timeout", r.timeout))

	var facilityOut, desertOut streamResult
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		facilityOut = r.runFacilities(gctx, facilities)
		return nil
	})
	g.Go(func() error {
		desertOut = r.runDeserts(gctx, deserts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]model.OutputRecord, 0, len(facilityOut.records)+len(desertOut.records))
	records = append(records, facilityOut.records...)
	records = append(records, desertOut.records...)

	stats := Stats{
		Facilities: len(facilityOut.records),
		Deserts:    len(desertOut.records),
		Skipped:    facilityOut.skipped + desertOut.skipped,
		Failed:     facilityOut.failed + desertOut.failed,
		Degraded:   degradedCounts(records),
		Duration:   time.Since(start),
	}
	for _, rec := range records {
		stats.Alerts += rec.AlertCount
		stats.Warnings += rec.WarningCount
		r.recorder.ObserveRecord(rec)
	}
	r.recorder.ObserveSkipped(stats.Skipped)
	r.recorder.ObserveDuration(stats.Duration)

	coll := &model.Collection{
		RunID:       runID,
		GeneratedAt: r.now(),
		Records:     records,
		Metadata: model.Metadata{
			TotalFacilities:    stats.Facilities,
			TotalDeserts:       stats.Deserts,
			RowsAnalyzed:       len(facilities), // whole file, context rows included
			RecordsSkipped:     stats.Skipped,
			RecordsFailed:      stats.Failed,
			TotalAlerts:        stats.Alerts,
			TotalWarnings:      stats.Warnings,
			Degraded:           stats.Degraded,
			QuestionCategories: model.CategoryCatalogue(),
			DataSource:         r.dataSource,
		},
	}

	fields := []zap.Field{
		zap.Int("facilities", stats.Facilities),
		zap.Int("deserts", stats.Deserts),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("alerts", stats.Alerts),
		zap.Int("warnings", stats.Warnings),
		zap.Duration("duration", stats.Duration),
	}
	for _, c := range sortedKeys(stats.Degraded) {
		fields = append(fields, zap.Int("degraded_"+c, stats.Degraded[c]))
	}
	log.Info("run finished", fields...)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn("run deadline reached; collection is partial", zap.Int("skipped", stats.Skipped))
	}
	return &Result{Collection: coll, Stats: stats}, nil
}

func (r *Runner) runFacilities(ctx context.Context, rows []ingest.FacilityRow) streamResult {
	if len(rows) == 0 {
		return streamResult{}
	}

	// Extraction is pure and cheap. The region index is built from every
	// row, including rows that are only context for a selection.
	extractions := make([]*extract.Extraction, len(rows))
	all := make([]model.StructuredFields, len(rows))
	var selected []int
	for i, row := range rows {
		extractions[i] = r.extractor.Extract(row.Record)
		all[i] = extractions[i].Fields
		if !row.ContextOnly {
			selected = append(selected, i)
		}
	}
	index := rules.BuildRegionIndex(all)

	tasks := make([]worker.Task[model.OutputRecord], len(selected))
	for t, i := range selected {
		ex := extractions[i]
		inline := rows[i].Coordinates
		tasks[t] = func(ctx context.Context) (model.OutputRecord, error) {
			ev := r.engine.Evaluate(rules.Input{Fields: ex.Fields, Region: index.For(ex.Fields)})
			coords := inline
			if coords == nil {
				coords = r.resolve(ctx, ex)
			}
			return r.assembler.AssembleFacility(ctx, assemble.FacilityInput{
				Extraction:  ex,
				Evaluation:  ev,
				Coordinates: coords,
			}), nil
		}
	}

	outcomes := worker.NewBatchProcessor[model.OutputRecord](r.workers).Process(ctx, tasks)
	return r.collect("facility", outcomes, func(t int) []zap.Field {
		return []zap.Field{zap.Int("row", rows[selected[t]].Record.Row())}
	})
}

func (r *Runner) runDeserts(ctx context.Context, deserts []model.DesertRecord) streamResult {
	if len(deserts) == 0 {
		return streamResult{}
	}
	tasks := make([]worker.Task[model.OutputRecord], len(deserts))
	for i := range deserts {
		d := deserts[i]
		tasks[i] = func(ctx context.Context) (model.OutputRecord, error) {
			return r.assembler.AssembleDesert(ctx, assemble.DesertInput{
				Record:     d,
				Evaluation: r.deserts.Evaluate(d),
			}), nil
		}
	}

	outcomes := worker.NewBatchProcessor[model.OutputRecord](r.workers).Process(ctx, tasks)
	return r.collect("desert", outcomes, func(i int) []zap.Field {
		return []zap.Field{zap.String("desert", deserts[i].Name)}
	})
}

func (r *Runner) collect(kind string, outcomes []worker.Outcome[model.OutputRecord], describe func(int) []zap.Field) streamResult {
	var out streamResult
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			out.skipped++
		case o.Err != nil:
			out.failed++
			r.log.Error(kind+" record failed", append(describe(o.Index), zap.Error(o.Err))...)
		default:
			out.records = append(out.records, o.Value)
		}
	}
	return out
}

// resolve geocodes a facility that carried no inline coordinates.
func (r *Runner) resolve(ctx context.Context, ex *extract.Extraction) *model.Coordinates {
	if r.geocoder == nil {
		return nil
	}
	address := geocodeQuery(ex.Raw, ex.Fields)
	coords, err := geocode.Resolve(ctx, r.geocoder, address)
	if err != nil {
		r.log.Debug("geocode unresolved",
			zap.Int("row", ex.Raw.Row()),
			zap.String("address", address),
			zap.Error(err))
		return nil
	}
	return coords
}

// geocodeQuery joins the address parts of a facility, most specific first.
func geocodeQuery(raw model.RawRecord, f model.StructuredFields) string {
	var parts []string
	seen := make(map[string]bool)
	for _, p := range []string{raw.Value(model.ColAddressLine1), f.City, f.Region, f.Country} {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

// degradedCounts tallies every degraded condition. Known conditions are
// always present so a clean run reports explicit zeros.
func degradedCounts(records []model.OutputRecord) map[string]int {
	counts := map[string]int{
		model.DegradedMalformedField:     0,
		model.DegradedGeocodeUnresolved:  0,
		model.DegradedSummaryUnavailable: 0,
	}
	for _, rec := range records {
		for _, c := range rec.Degraded {
			counts[c]++
		}
	}
	return counts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
