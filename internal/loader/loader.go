package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dbsmedya/dbsample/internal/artifact"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// ImportError wraps a failure while loading an artifact into the target.
type ImportError struct {
	Table string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed for table %s: %v", e.Table, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// LoadStats summarizes a completed load.
type LoadStats struct {
	TablesLoaded int
	RowsLoaded   int64
	Duration     time.Duration
}

// Loader inserts exported artifacts into the target database. Each table
// loads inside its own transaction with a prepared insert, so a constraint
// violation rolls the table back cleanly and fails the run.
type Loader struct {
	db     *sql.DB
	logger *logger.Logger
}

// New creates a loader against the target database.
func New(db *sql.DB, log *logger.Logger) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("target database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Loader{db: db, logger: log}, nil
}

// Load inserts every artifact in the given order. The order must be a
// topological order of the relation graph: parents load before children so
// foreign key checks on the target pass as rows arrive.
func (l *Loader) Load(ctx context.Context, order []string, artifacts map[string]*artifact.Artifact) (*LoadStats, error) {
	stats := &LoadStats{}
	start := time.Now()

	for _, table := range order {
		art, ok := artifacts[table]
		if !ok {
			continue
		}
		rows, err := l.loadTable(ctx, art)
		if err != nil {
			return nil, &ImportError{Table: table, Err: err}
		}
		stats.TablesLoaded++
		stats.RowsLoaded += rows
		l.logger.WithTable(table).Infow("Table loaded", "rows", rows)
	}

	stats.Duration = time.Since(start)
	l.logger.Infow("Load complete",
		"tables", stats.TablesLoaded,
		"rows", stats.RowsLoaded,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (l *Loader) loadTable(ctx context.Context, art *artifact.Artifact) (int64, error) {
	reader, err := artifact.OpenReader(art.Path)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	insert, err := insertStatement(art.Table, reader.Columns())
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}

	var loaded int64
	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("read artifact: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert row: %w", err)
		}
		loaded++
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return loaded, nil
}

// insertStatement builds the prepared insert. Table and column names come
// from the artifact file, not from introspection, so they are validated
// before being interpolated.
func insertStatement(table string, columns []string) (string, error) {
	quotedTable, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return "", err
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if quoted[i], err = sqlutil.QuoteIdentifierSafe(col); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quotedTable,
		strings.Join(quoted, ", "),
		sqlutil.Placeholders(1, len(columns)),
	), nil
}
