package sampler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// Estimator computes per-table row counts under the resolved modifier
// conditions, without membership constraints. Used by plan output to show
// the upper bound each table contributes before referential narrowing.
type Estimator struct {
	source *sql.DB
	cfg    *config.Config
}

// NewEstimator creates an estimator over the source connection.
func NewEstimator(source *sql.DB, cfg *config.Config) (*Estimator, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	return &Estimator{source: source, cfg: cfg}, nil
}

// EstimateCounts returns, per table, the matching row count capped by the
// resolved limit.
func (e *Estimator) EstimateCounts(ctx context.Context, g *graph.SchemaGraph) (map[string]int64, error) {
	counts := make(map[string]int64, g.NodeCount())

	for _, table := range g.TableNames() {
		mod := ResolveModifier(table, e.cfg)

		query := "SELECT COUNT(*) FROM " + sqlutil.QuoteIdentifier(table)
		if len(mod.Conditions) > 0 {
			wrapped := make([]string, len(mod.Conditions))
			for i, c := range mod.Conditions {
				wrapped[i] = "(" + c + ")"
			}
			query += " WHERE " + strings.Join(wrapped, " AND ")
		}

		var count int64
		if err := e.source.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, &QueryError{Table: table, Query: query, Err: err}
		}

		if !mod.Unlimited() && count > int64(mod.Limit) {
			count = int64(mod.Limit)
		}
		counts[table] = count
	}

	return counts, nil
}
