package cmd

import (
	"fmt"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/spf13/cobra"
)

var emptyConfigCmd = &cobra.Command{
	Use:   "empty-config",
	Short: "Print an example configuration file",
	Long: `Empty-config prints a starter configuration to stdout. Redirect it to
a file and edit the database URLs and modifiers to fit your schema.

Example:
  dbsample empty-config > sample.json`,
	Run: runEmptyConfig,
}

func init() {
	rootCmd.AddCommand(emptyConfigCmd)
}

func runEmptyConfig(cmd *cobra.Command, args []string) {
	fmt.Fprint(cmd.OutOrStdout(), config.Template, "\n")
}
