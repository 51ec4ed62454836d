package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/database"
	"github.com/dbsmedya/dbsample/internal/lock"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/sampler"
	"github.com/spf13/cobra"
)

var (
	sampleSkipSchema bool
	sampleSkipVerify bool
)

var sampleCmd = &cobra.Command{
	Use:   "sample <config-path>",
	Short: "Extract a consistent sample and load it into the target database",
	Long: `Sample extracts a referentially consistent subset of the source
database and loads it into the target database.

The sampling process follows these steps:
  1. Introspect foreign keys and build the relation graph
  2. Clone the source schema into the target (unless --skip-schema)
  3. Plan and export each table in dependency order, constraining every
     foreign key to the keys already sampled from its parent
  4. Load the CSV artifacts into the target, parents first
  5. Verify row counts against the artifacts (unless --skip-verify)

Example:
  dbsample sample sample.json --skip-schema`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().BoolVar(&sampleSkipSchema, "skip-schema", false,
		"Skip cloning the schema into the target database")
	sampleCmd.Flags().BoolVar(&sampleSkipVerify, "skip-verify", false,
		"Skip row count verification after load")

	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, args []string) error {
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

	log.Infow("Starting sampling run", "config", configFile)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	dbManager := database.NewManager(cfg)

	// Graceful shutdown: cancelling the run context aborts the whole run.
	ctx := database.SetupSignalHandlerWithCallback(func(sig os.Signal) {
		log.Warnw("Received shutdown signal - aborting run...", "signal", sig.String())
	})

	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to databases: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	runner, err := sampler.NewRunner(cfg, dbManager, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	result, err := runner.Run(ctx, sampler.RunOptions{
		SkipSchema: sampleSkipSchema,
		SkipVerify: sampleSkipVerify,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Sampling run cancelled by user")
			return nil
		}
		if errors.Is(err, lock.ErrLockHeld) {
			return fmt.Errorf("another sampling run is loading into this target: %w", err)
		}
		return fmt.Errorf("sampling run failed: %w", err)
	}

	fmt.Printf("\n=== Sample Complete ===\n")
	fmt.Printf("Duration: %s\n", result.Duration)
	fmt.Printf("Output Directory: %s\n", result.OutputDirectory)
	fmt.Printf("Tables Exported: %d\n", result.TablesExported)
	fmt.Printf("Rows Exported: %d\n", result.RowsExported)
	fmt.Printf("Rows Loaded: %d\n", result.RowsLoaded)

	return nil
}
