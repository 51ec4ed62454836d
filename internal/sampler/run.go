package sampler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dbsmedya/dbsample/internal/artifact"
	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/database"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/loader"
	"github.com/dbsmedya/dbsample/internal/lock"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/schema"
	"github.com/dbsmedya/dbsample/internal/verifier"
)

// RunOptions toggles the optional stages of a sampling run.
type RunOptions struct {
	SkipSchema bool // skip DDL clone into the target
	SkipVerify bool // skip post-load count verification
}

// RunResult summarizes a completed run.
type RunResult struct {
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	OutputDirectory string
	Order           []string
	TablesExported  int
	RowsExported    int64
	RowsLoaded      int64
	RowsPerTable    map[string]int64
}

// Runner owns the state of a single sampling run: graph, key sets and
// artifacts all live here and are discarded when the run ends. Runs never
// share state.
type Runner struct {
	cfg    *config.Config
	db     *database.Manager
	logger *logger.Logger
}

// NewRunner creates a runner. The database manager must already be
// connected.
func NewRunner(cfg *config.Config, db *database.Manager, log *logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database manager is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Runner{cfg: cfg, db: db, logger: log}, nil
}

// Run executes the full pipeline: introspect, build and validate the
// graph, plan and export every table over the worker pool, then load the
// artifacts into the target. Any stage failure aborts the whole run; there
// is no partial-success mode, since referential closure is a property of
// the complete dataset.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	result := &RunResult{
		StartedAt:    time.Now(),
		RowsPerTable: make(map[string]int64),
	}

	g, err := r.buildGraph(ctx)
	if err != nil {
		return nil, err
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	result.Order = order

	r.warnUnspecifiedEntrypoints(g)

	outputDir, temporary, err := EnsureOutputDirectory(r.cfg.OutputDirectory, r.logger)
	if err != nil {
		return nil, err
	}
	result.OutputDirectory = outputDir

	if !opts.SkipSchema {
		if err := schema.CloneDDL(ctx, r.cfg.SourceDatabaseURL, r.cfg.TargetDatabaseURL, r.logger); err != nil {
			return nil, err
		}
	}

	artifacts, err := r.planAndExport(ctx, g, outputDir)
	if err != nil {
		if temporary {
			_ = os.RemoveAll(outputDir)
		}
		return nil, err
	}

	for _, art := range artifacts {
		result.TablesExported++
		result.RowsExported += art.Rows
		result.RowsPerTable[art.Table] = art.Rows
	}

	loaded, err := r.load(ctx, order, artifacts, opts)
	if err != nil {
		return nil, err
	}
	result.RowsLoaded = loaded

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	r.logger.Infow("Sampling run complete",
		"tables", result.TablesExported,
		"rows_exported", result.RowsExported,
		"rows_loaded", result.RowsLoaded,
		"duration", result.Duration,
	)

	return result, nil
}

// buildGraph introspects the source and assembles the validated relation
// graph.
func (r *Runner) buildGraph(ctx context.Context) (*graph.SchemaGraph, error) {
	introspector, err := schema.NewIntrospector(r.db.Source, r.cfg.Sampling.Schema, r.logger)
	if err != nil {
		return nil, err
	}
	meta, err := introspector.Load(ctx)
	if err != nil {
		return nil, err
	}

	g, err := graph.BuildFromConfig(meta, r.cfg)
	if err != nil {
		return nil, err
	}

	r.logger.Infow("Relation graph built",
		"tables", g.NodeCount(),
		"relations", g.EdgeCount(),
	)

	return g, nil
}

// warnUnspecifiedEntrypoints flags entrypoint tables without an explicit
// modifier: they anchor the sample, so leaving them to the default is
// usually an oversight.
func (r *Runner) warnUnspecifiedEntrypoints(g *graph.SchemaGraph) {
	var unspecified []string
	for _, table := range g.Entrypoints() {
		if _, ok := r.cfg.Modifier(table); !ok {
			unspecified = append(unspecified, table)
		}
	}
	if len(unspecified) > 0 {
		r.logger.Warnw("Entrypoint tables have no query modifier; they define what the final sample looks like",
			"tables", unspecified,
		)
	}
}

// planAndExport runs the per-table plan+export pipeline over the worker
// pool. Key sets are frozen before a table's completion is signalled, so
// children always read finalized parent keys.
func (r *Runner) planAndExport(ctx context.Context, g *graph.SchemaGraph, outputDir string) (map[string]*artifact.Artifact, error) {
	planner, err := NewPlanner(r.db.Source, g, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	exporter, err := NewExporter(r.db.Source, outputDir, r.cfg.Sampling.BatchSize, r.logger)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	keys := make(map[string]*KeySet, g.NodeCount())
	artifacts := make(map[string]*artifact.Artifact, g.NodeCount())

	err = Schedule(ctx, g, r.cfg.Sampling.Workers, func(ctx context.Context, table string) error {
		mu.Lock()
		parents := make(map[string]*KeySet)
		for _, parent := range g.Parents(table) {
			parents[parent] = keys[parent]
		}
		mu.Unlock()

		plan, err := planner.PlanTable(ctx, table, parents)
		if err != nil {
			return err
		}

		art, err := exporter.Export(ctx, plan)
		if err != nil {
			return err
		}

		mu.Lock()
		keys[table] = plan.Keys
		artifacts[table] = art
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return artifacts, nil
}

// load acquires the target advisory lock, loads artifacts in topological
// order, and verifies counts unless skipped.
func (r *Runner) load(ctx context.Context, order []string, artifacts map[string]*artifact.Artifact, opts RunOptions) (int64, error) {
	loadLock := lock.NewLoadLock(r.db.Target)
	if err := loadLock.AcquireOrFail(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = loadLock.Release(context.Background())
	}()

	ld, err := loader.New(r.db.Target, r.logger)
	if err != nil {
		return 0, err
	}
	stats, err := ld.Load(ctx, order, artifacts)
	if err != nil {
		return 0, err
	}

	if !opts.SkipVerify {
		v, err := verifier.New(r.db.Target, r.logger)
		if err != nil {
			return stats.RowsLoaded, err
		}
		if err := v.VerifyCounts(ctx, order, artifacts); err != nil {
			return stats.RowsLoaded, err
		}
	}

	return stats.RowsLoaded, nil
}
