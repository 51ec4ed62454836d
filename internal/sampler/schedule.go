package sampler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/dbsample/internal/graph"
)

// Schedule runs fn once per table over a bounded worker pool, honoring the
// dependency order: a table's task starts only after every parent table's
// task has completed successfully. Independent subtrees run in parallel.
// The first failure cancels all not-yet-started tasks and is returned;
// tasks blocked on a failed parent exit via context cancellation.
func Schedule(ctx context.Context, g *graph.SchemaGraph, workers int, fn func(ctx context.Context, table string) error) error {
	if workers <= 0 {
		workers = 1
	}

	// Validated graphs are acyclic; this also catches callers passing an
	// unvalidated graph.
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	done := make(map[string]chan struct{}, len(order))
	for _, table := range order {
		done[table] = make(chan struct{})
	}

	sem := make(chan struct{}, workers)
	eg, ctx := errgroup.WithContext(ctx)

	for _, table := range order {
		table := table
		parents := g.Parents(table)

		eg.Go(func() error {
			// Wait for every parent's completion signal before taking a
			// worker slot, so waiting tasks never starve running ones.
			for _, parent := range parents {
				select {
				case <-done[parent]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			if err := fn(ctx, table); err != nil {
				return fmt.Errorf("table %s: %w", table, err)
			}

			close(done[table])
			return nil
		})
	}

	return eg.Wait()
}
