package sampler

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// QueryError reports a failed planning or export query: a malformed
// predicate or an unresolvable reference. Fatal for the run.
type QueryError struct {
	Table string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed for table %s: %v\n  query: %s", e.Table, e.Err, e.Query)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExportError reports an I/O or cursor failure while streaming a table's
// rows to its artifact. The partial artifact is discarded.
type ExportError struct {
	Table string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed for table %s: %v", e.Table, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// EdgeConstraint restricts a child table to rows whose foreign key columns
// hold one of the parent's sampled key tuples, or NULL. An empty tuple set
// admits only NULL foreign keys.
type EdgeConstraint struct {
	Columns []string
	Tuples  [][]interface{}
}

// TableQuery is the fully resolved sampling predicate for one table:
// configured conditions, one membership constraint per outgoing relation,
// and the row limit.
type TableQuery struct {
	Table       string
	Conditions  []string
	Constraints []EdgeConstraint
	Limit       int
}

// SQL renders the query selecting the given columns (all columns when nil,
// via *). Constrained foreign key columns are ordered NULLS LAST so rows
// satisfying relations fill the limit before NULL-keyed ones.
func (q *TableQuery) SQL(selectColumns []string) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString("SELECT ")
	if len(selectColumns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(sqlutil.QuoteIdentifiers(selectColumns), ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(sqlutil.QuoteIdentifier(q.Table))

	var where []string
	for _, cond := range q.Conditions {
		where = append(where, "("+cond+")")
	}

	var orderBy []string
	next := 1 // next placeholder number
	for _, c := range q.Constraints {
		nullExpr := nullTupleExpr(c.Columns)
		if len(c.Tuples) == 0 {
			where = append(where, nullExpr)
			continue
		}

		width := len(c.Columns)
		clause := fmt.Sprintf("(%s IN (%s) OR %s)",
			sqlutil.ColumnTuple(c.Columns),
			sqlutil.TuplePlaceholders(next, width, len(c.Tuples)),
			nullExpr)
		where = append(where, clause)
		next += width * len(c.Tuples)

		for _, tuple := range c.Tuples {
			args = append(args, tuple...)
		}
		for _, col := range c.Columns {
			orderBy = append(orderBy, sqlutil.QuoteIdentifier(col)+" NULLS LAST")
		}
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if len(orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	return sb.String(), args
}

// nullTupleExpr renders the all-columns-NULL test for a foreign key.
func nullTupleExpr(columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = sqlutil.QuoteIdentifier(col) + " IS NULL"
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}
