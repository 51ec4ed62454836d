package sampler

import (
	"fmt"
	"os"

	"github.com/dbsmedya/dbsample/internal/logger"
)

// EnsureOutputDirectory resolves the artifact directory for a run. With no
// configured directory a fresh temporary one is created. A configured
// directory is created if absent; pointing at an existing non-empty
// directory is an error, since completed artifacts must never mix with
// leftovers of another run.
//
// Returns the directory path and whether it is a temporary directory owned
// by this run (and so removable on failure).
func EnsureOutputDirectory(configured string, log *logger.Logger) (string, bool, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	if configured == "" {
		dir, err := os.MkdirTemp("", "sample-")
		if err != nil {
			return "", false, fmt.Errorf("failed to create temporary output directory: %w", err)
		}
		log.Infow("Output directory unspecified, using temporary directory", "dir", dir)
		return dir, true, nil
	}

	if err := os.Mkdir(configured, 0755); err != nil {
		if !os.IsExist(err) {
			return "", false, fmt.Errorf("failed to create output directory %s: %w", configured, err)
		}
		entries, readErr := os.ReadDir(configured)
		if readErr != nil {
			return "", false, fmt.Errorf("failed to inspect output directory %s: %w", configured, readErr)
		}
		if len(entries) > 0 {
			return "", false, fmt.Errorf("output directory %s already exists and is not empty", configured)
		}
	}

	return configured, false, nil
}
