package sampler

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/dbsample/internal/artifact"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// Exporter streams a planned table's rows into its CSV artifact using a
// forward-only cursor. Rows are re-selected by primary key membership in
// chunks, so memory stays bounded for large tables.
type Exporter struct {
	source    *sql.DB
	dir       string
	batchSize int
	logger    *logger.Logger
}

// NewExporter creates an exporter writing artifacts into dir.
func NewExporter(source *sql.DB, dir string, batchSize int, log *logger.Logger) (*Exporter, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Exporter{source: source, dir: dir, batchSize: batchSize, logger: log}, nil
}

// Export writes the plan's rows to the table artifact. The artifact is
// complete only once every cursor is exhausted without error; any failure
// discards the partial file and fails the run.
func (e *Exporter) Export(ctx context.Context, plan *Plan) (*artifact.Artifact, error) {
	columns := plan.Table.ColumnNames()
	writer, err := artifact.NewWriter(e.dir, plan.Table.Name, columns)
	if err != nil {
		return nil, &ExportError{Table: plan.Table.Name, Err: err}
	}

	switch {
	case plan.ByKeys():
		err = e.exportByKeys(ctx, plan, writer)
	case plan.Retained():
		err = e.exportRetained(plan, writer)
	default:
		err = e.exportByQuery(ctx, plan, writer)
	}
	if err != nil {
		writer.Abort()
		return nil, err
	}

	art, err := writer.Complete()
	if err != nil {
		return nil, &ExportError{Table: plan.Table.Name, Err: err}
	}

	e.logger.Infow("Table exported",
		"table", art.Table,
		"rows", art.Rows,
		"artifact", art.Path,
	)

	return art, nil
}

// exportByKeys selects full rows by primary key membership, chunked to
// bound the IN list length.
func (e *Exporter) exportByKeys(ctx context.Context, plan *Plan, writer *artifact.Writer) error {
	table := plan.Table.Name
	pk := plan.Table.PrimaryKey

	tuples, err := plan.Keys.Tuples(pk)
	if err != nil {
		return &ExportError{Table: table, Err: err}
	}

	columns := plan.Table.ColumnNames()
	selectList := ""
	for i, c := range sqlutil.QuoteIdentifiers(columns) {
		if i > 0 {
			selectList += ", "
		}
		selectList += c
	}

	for _, chunk := range ChunkTuples(tuples, e.batchSize) {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
			selectList,
			sqlutil.QuoteIdentifier(table),
			sqlutil.ColumnTuple(pk),
			sqlutil.TuplePlaceholders(1, len(pk), len(chunk)),
		)
		args := make([]interface{}, 0, len(chunk)*len(pk))
		for _, tuple := range chunk {
			args = append(args, tuple...)
		}

		if err := e.streamRows(ctx, table, len(columns), query, args, writer); err != nil {
			return err
		}
	}

	return nil
}

// exportRetained writes the rows captured at plan time. Used for tables
// without a primary key that children reference: the plan query already
// ran once over every column, and running it again could select a
// different row set than the keys children were constrained against.
func (e *Exporter) exportRetained(plan *Plan, writer *artifact.Writer) error {
	for _, row := range plan.Rows {
		if err := writer.WriteRow(row); err != nil {
			return &ExportError{Table: plan.Table.Name, Err: err}
		}
	}
	return nil
}

// exportByQuery runs the plan query selecting all columns. Used for
// tables without a primary key that nothing references; planning skipped
// the query for those, so this is its only execution.
func (e *Exporter) exportByQuery(ctx context.Context, plan *Plan, writer *artifact.Writer) error {
	query, args := plan.Query.SQL(plan.Table.ColumnNames())
	return e.streamRows(ctx, plan.Table.Name, len(plan.Table.Columns), query, args, writer)
}

func (e *Exporter) streamRows(ctx context.Context, table string, width int, query string, args []interface{}, writer *artifact.Writer) error {
	rows, err := e.source.QueryContext(ctx, query, args...)
	if err != nil {
		return &QueryError{Table: table, Query: query, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]interface{}, width)
		ptrs := make([]interface{}, width)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return &ExportError{Table: table, Err: err}
		}
		if err := writer.WriteRow(values); err != nil {
			return &ExportError{Table: table, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &ExportError{Table: table, Err: err}
	}

	return nil
}
