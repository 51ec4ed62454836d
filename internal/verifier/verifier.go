// Package verifier checks loaded samples against their exported artifacts.
package verifier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/dbsample/internal/artifact"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// CountMismatchError reports a table whose target row count does not match
// the artifact it was loaded from.
type CountMismatchError struct {
	Table    string
	Expected int64
	Actual   int64
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("count mismatch for table %s: artifact has %d rows, target has %d",
		e.Table, e.Expected, e.Actual)
}

// Verifier validates that the target database contains exactly the rows
// that were exported. It is a cheap guard against partially applied loads
// or a target that was not empty.
type Verifier struct {
	db     *sql.DB
	logger *logger.Logger
}

// New creates a verifier against the target database.
func New(db *sql.DB, log *logger.Logger) (*Verifier, error) {
	if db == nil {
		return nil, fmt.Errorf("target database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{db: db, logger: log}, nil
}

// VerifyCounts compares COUNT(*) on the target against each artifact's row
// count. All tables are checked; mismatches are collected and reported
// together so a single bad table does not hide the others.
func (v *Verifier) VerifyCounts(ctx context.Context, order []string, artifacts map[string]*artifact.Artifact) error {
	var mismatches []string

	for _, table := range order {
		art, ok := artifacts[table]
		if !ok {
			continue
		}

		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", sqlutil.QuoteIdentifier(table))
		var actual int64
		if err := v.db.QueryRowContext(ctx, query).Scan(&actual); err != nil {
			return fmt.Errorf("failed to count rows in table %s: %w", table, err)
		}

		if actual != art.Rows {
			err := &CountMismatchError{Table: table, Expected: art.Rows, Actual: actual}
			v.logger.WithTable(table).Errorw("Verification failed",
				"expected", art.Rows,
				"actual", actual,
			)
			mismatches = append(mismatches, err.Error())
			continue
		}

		v.logger.WithTable(table).Debugw("Count verified", "rows", actual)
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("verification failed for %d table(s): %s",
			len(mismatches), strings.Join(mismatches, "; "))
	}

	v.logger.Infow("Verification complete", "tables", len(artifacts))
	return nil
}
