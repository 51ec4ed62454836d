package sampler

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/logger"
	"github.com/dbsmedya/dbsample/internal/schema"
)

// Plan is the finalized sampling decision for one table: the resolved
// query and the captured key set children constrain against.
type Plan struct {
	Table *schema.Table
	Query TableQuery
	Keys  *KeySet

	// Rows holds the full rows captured during planning. Populated only
	// for tables without a primary key that children reference: their
	// plan query runs exactly once, feeding both the key set and the
	// export, so children are constrained against the rows that actually
	// ship.
	Rows [][]interface{}
}

// ByKeys reports whether the table's rows can be re-selected by primary
// key membership. Tables without a primary key are exported by re-running
// the plan query instead.
func (p *Plan) ByKeys() bool {
	return len(p.Table.PrimaryKey) > 0
}

// Retained reports whether full rows were captured at plan time.
func (p *Plan) Retained() bool {
	return p.Rows != nil
}

// Planner computes, table by table in dependency order, the exact row sets
// to export. Every foreign key value in a planned child row is guaranteed
// to be NULL or a member of the referenced parent's frozen key set.
type Planner struct {
	source *sql.DB
	graph  *graph.SchemaGraph
	cfg    *config.Config
	logger *logger.Logger
}

// NewPlanner creates a planner over the source connection and validated
// graph.
func NewPlanner(source *sql.DB, g *graph.SchemaGraph, cfg *config.Config, log *logger.Logger) (*Planner, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Planner{source: source, graph: g, cfg: cfg, logger: log}, nil
}

// BuildQuery assembles the table's resolved query from its modifier and
// one membership constraint per outgoing relation. Every referenced parent
// must already be planned and frozen.
func (p *Planner) BuildQuery(table string, parents map[string]*KeySet) (TableQuery, error) {
	mod := ResolveModifier(table, p.cfg)
	tq := TableQuery{
		Table:      table,
		Conditions: mod.Conditions,
		Limit:      mod.Limit,
	}

	for _, rel := range p.graph.Outgoing(table) {
		parent, ok := parents[rel.Parent]
		if !ok {
			return TableQuery{}, fmt.Errorf("parent table %s of %s is not planned yet", rel.Parent, table)
		}
		tuples, err := parent.Tuples(rel.ParentColumns)
		if err != nil {
			return TableQuery{}, fmt.Errorf("failed to project keys of %s: %w", rel.Parent, err)
		}
		tq.Constraints = append(tq.Constraints, EdgeConstraint{
			Columns: rel.ChildColumns,
			Tuples:  tuples,
		})
	}

	return tq, nil
}

// PlanTable computes and freezes the table's key set. The key query
// projects the primary key plus any columns referenced by child relations;
// tables nothing references and without a primary key skip the key query
// entirely, since no key material is needed.
func (p *Planner) PlanTable(ctx context.Context, table string, parents map[string]*KeySet) (*Plan, error) {
	t := p.graph.Table(table)
	if t == nil {
		return nil, fmt.Errorf("table %s is not part of the graph", table)
	}

	tq, err := p.BuildQuery(table, parents)
	if err != nil {
		return nil, err
	}

	keyColumns := p.keyColumns(t)
	keys := NewKeySet(table, keyColumns)

	if len(keyColumns) == 0 {
		keys.Freeze()
		p.logger.Debugw("No key columns to capture", "table", table)
		return &Plan{Table: t, Query: tq, Keys: keys}, nil
	}

	// A table without a primary key cannot be re-addressed at export
	// time, so its plan query runs once over every column: the key set
	// is projected from the captured rows and the rows are retained for
	// the exporter. Re-running a limited query without a total ordering
	// could return a different row set than the one children were
	// constrained against.
	captureAll := len(t.PrimaryKey) == 0
	queryColumns := keyColumns
	if captureAll {
		queryColumns = t.ColumnNames()
	}

	query, args := tq.SQL(queryColumns)
	p.logger.Debugw("Planning table", "table", table, "query", query)

	rows, err := p.source.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Table: table, Query: query, Err: err}
	}
	defer rows.Close()

	var retained [][]interface{}
	if captureAll {
		retained = make([][]interface{}, 0)
	}
	keyIdx := columnIndexes(queryColumns, keyColumns)

	for rows.Next() {
		values := make([]interface{}, len(queryColumns))
		ptrs := make([]interface{}, len(queryColumns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Table: table, Query: query, Err: err}
		}
		row := normalizeRow(values)
		if captureAll {
			retained = append(retained, row)
			proj := make([]interface{}, len(keyIdx))
			for i, idx := range keyIdx {
				proj[i] = row[idx]
			}
			row = proj
		}
		if err := keys.Add(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: table, Query: query, Err: err}
	}

	keys.Freeze()

	p.logger.Infow("Table planned",
		"table", table,
		"keys", keys.Len(),
		"constraints", len(tq.Constraints),
	)

	return &Plan{Table: t, Query: tq, Keys: keys, Rows: retained}, nil
}

// columnIndexes maps each wanted column to its position in all.
func columnIndexes(all, want []string) []int {
	out := make([]int, len(want))
	for i, w := range want {
		for j, c := range all {
			if c == w {
				out[i] = j
				break
			}
		}
	}
	return out
}

// keyColumns returns the primary key columns plus any columns referenced
// by child relations, deduplicated, in a stable order.
func (p *Planner) keyColumns(t *schema.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range t.PrimaryKey {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, set := range p.graph.ReferencedColumnSets(t.Name) {
		for _, c := range set {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// normalizeRow converts driver byte slices into comparable values so key
// tuples can be deduplicated and reused as query parameters.
func normalizeRow(values []interface{}) []interface{} {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values
}
