package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/database"
	"github.com/dbsmedya/dbsample/internal/diagram"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/sampler"
	"github.com/dbsmedya/dbsample/internal/schema"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planCounts bool

var planCmd = &cobra.Command{
	Use:   "plan <config-path>",
	Short: "Show the sampling plan without touching the target",
	Long: `Plan introspects the source database, builds the relation graph and
displays what a sampling run would do, without writing anything.

The plan shows:
  - Visual relation diagram grouped by dependency depth
  - Sampling order (parent tables first)
  - Detected and configured relationships
  - Resolved query modifiers per table
  - Estimated row counts on the source (with --counts)

Example:
  dbsample plan sample.json --counts`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planCounts, "counts", false,
		"Estimate row counts per table on the source database")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	configFile := args[0]

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.Workers)

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	dbManager := database.NewManager(cfg)
	ctx := context.Background()

	// Only the source is needed for planning.
	if err := dbManager.ConnectSource(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	introspector, err := schema.NewIntrospector(dbManager.Source, cfg.Sampling.Schema, log)
	if err != nil {
		return err
	}
	meta, err := introspector.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to introspect source schema: %w", err)
	}

	g, err := graph.BuildFromConfig(meta, cfg)
	if err != nil {
		return fmt.Errorf("failed to build relation graph: %w", err)
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	// Relation diagram
	rendered, err := diagram.Render(g, diagram.Options{Color: isTerminal()})
	if err != nil {
		return fmt.Errorf("failed to render diagram: %w", err)
	}
	fmt.Fprintln(outputWriter)
	printHeader("Relation Diagram")
	fmt.Fprintln(outputWriter)
	fmt.Fprint(outputWriter, rendered)

	printHeader("Sampling Plan: %s", configFile)

	fmt.Fprintln(outputWriter)
	printSection("Overview")
	fmt.Fprintf(outputWriter, "  Tables:      %d\n", g.NodeCount())
	fmt.Fprintf(outputWriter, "  Relations:   %d\n", g.EdgeCount())
	fmt.Fprintf(outputWriter, "  Entrypoints: %s\n", strings.Join(g.Entrypoints(), ", "))

	var counts map[string]int64
	if planCounts {
		estimator, err := sampler.NewEstimator(dbManager.Source, cfg)
		if err != nil {
			return err
		}
		counts, err = estimator.EstimateCounts(ctx, g)
		if err != nil {
			return fmt.Errorf("failed to estimate counts: %w", err)
		}
	}

	fmt.Fprintln(outputWriter)
	printSection("Sampling Order (parent tables first)")
	for i, table := range order {
		line := fmt.Sprintf("  [%d] %s", i+1, table)
		mod := sampler.ResolveModifier(table, cfg)
		if !mod.Unlimited() {
			line += fmt.Sprintf(" | limit %d", mod.Limit)
		}
		if len(mod.Conditions) > 0 {
			line += fmt.Sprintf(" | where %s", strings.Join(mod.Conditions, " AND "))
		}
		if counts != nil {
			line += fmt.Sprintf(" | ~%d rows", counts[table])
		}
		fmt.Fprintln(outputWriter, line)
	}

	fmt.Fprintln(outputWriter)
	printSection("Relationships")
	for _, rel := range g.Relations() {
		fmt.Fprintf(outputWriter, "  %s\n", rel.String())
	}

	return nil
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := len(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}

func isTerminal() bool {
	_, ok := outputWriter.(*os.File)
	return ok && color.IsSupportColor()
}
