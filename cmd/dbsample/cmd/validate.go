package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/database"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-path>",
	Short: "Validate configuration against the source database",
	Long: `Validate checks the configuration file and verifies it against the
source database schema.

Checks performed:
  - Configuration syntax and required fields
  - Source database connectivity
  - EXTEND_RELATIONS and IGNORE_RELATIONS endpoints exist
  - IGNORE_TABLES reference existing tables
  - QUERY_MODIFIERS reference existing tables
  - The relation graph is acyclic

Example:
  dbsample validate sample.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	log.Info("Starting validation checks...")

	fmt.Printf("\n=== Configuration Validation ===\n")
	fmt.Printf("Config file: %s\n\n", configFile)

	// Shape checks first, before touching the database.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Println("Configuration shape: ok")

	dbManager := database.NewManager(cfg)
	ctx := context.Background()

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
	fmt.Printf("Source tables discovered: %d\n", len(meta.Tables))

	g, err := graph.BuildFromConfig(meta, cfg)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Relation graph: %d tables, %d relations\n", g.NodeCount(), g.EdgeCount())

	// QUERY_MODIFIERS must name real tables.
	for name := range cfg.QueryModifiers {
		if name == config.DefaultModifierKey {
			continue
		}
		if !g.HasTable(name) {
			return fmt.Errorf("validation failed: QUERY_MODIFIERS references unknown table %q", name)
		}
	}

	fmt.Println("\n=== Validation Complete ===")
	fmt.Println("Configuration is valid")
	return nil
}
