package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	logLevel  string
	logFormat string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "dbsample",
	Short: "Referential-integrity-preserving database sampler",
	Long: `A CLI tool for extracting a consistent subset of a PostgreSQL database
and loading it into a target database.

The sample preserves referential integrity: every foreign key in the
extracted rows points at a row that is also part of the sample. Tables
are processed in dependency order (parents before children) so the
target can keep its foreign key constraints enabled during the load.

Features:
  - Automatic foreign key discovery via information_schema
  - Dependency resolution using Kahn's algorithm
  - Virtual relations (EXTEND_RELATIONS) and exclusions (IGNORE_RELATIONS)
  - Per-table query modifiers for conditions and row limits
  - CSV artifacts for every sampled table`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override number of concurrent table workers")
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Workers   int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Workers:   workers,
	}
}
