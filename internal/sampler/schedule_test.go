package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/graph"
	"github.com/dbsmedya/dbsample/internal/schema"
)

// diamondGraph: users feeds orders and sessions, both feed audit.
func diamondGraph(t *testing.T) *graph.SchemaGraph {
	t.Helper()
	meta := &schema.Metadata{
		Tables: []schema.Table{
			{Name: "users", Columns: []schema.Column{{Name: "id"}}, PrimaryKey: []string{"id"}},
			{Name: "orders", Columns: []schema.Column{{Name: "id"}, {Name: "user_id"}}, PrimaryKey: []string{"id"}},
			{Name: "sessions", Columns: []schema.Column{{Name: "id"}, {Name: "user_id"}}, PrimaryKey: []string{"id"}},
			{Name: "audit", Columns: []schema.Column{{Name: "id"}, {Name: "order_id"}, {Name: "session_id"}}, PrimaryKey: []string{"id"}},
		},
		ForeignKeys: []schema.ForeignKey{
			{ChildTable: "orders", ChildColumns: []string{"user_id"}, ParentTable: "users", ParentColumns: []string{"id"}},
			{ChildTable: "sessions", ChildColumns: []string{"user_id"}, ParentTable: "users", ParentColumns: []string{"id"}},
			{ChildTable: "audit", ChildColumns: []string{"order_id"}, ParentTable: "orders", ParentColumns: []string{"id"}},
			{ChildTable: "audit", ChildColumns: []string{"session_id"}, ParentTable: "sessions", ParentColumns: []string{"id"}},
		},
	}
	g, err := graph.BuildFromConfig(meta, config.DefaultConfig())
	require.NoError(t, err)
	return g
}

func TestSchedule_ParentsCompleteBeforeChildren(t *testing.T) {
	g := diamondGraph(t)

	var mu sync.Mutex
	completed := make(map[string]bool)

	err := Schedule(context.Background(), g, 4, func(ctx context.Context, table string) error {
		mu.Lock()
		defer mu.Unlock()
		for _, parent := range g.Parents(table) {
			if !completed[parent] {
				t.Errorf("table %s started before parent %s completed", table, parent)
			}
		}
		completed[table] = true
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, completed, 4)
}

func TestSchedule_RunsEveryTableOnce(t *testing.T) {
	g := diamondGraph(t)

	var mu sync.Mutex
	runs := make(map[string]int)

	err := Schedule(context.Background(), g, 2, func(ctx context.Context, table string) error {
		mu.Lock()
		runs[table]++
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	for table, n := range runs {
		assert.Equalf(t, 1, n, "table %s ran %d times", table, n)
	}
}

func TestSchedule_FailurePropagates(t *testing.T) {
	g := diamondGraph(t)
	boom := errors.New("planning exploded")

	err := Schedule(context.Background(), g, 4, func(ctx context.Context, table string) error {
		if table == "orders" {
			return boom
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "orders")
}

func TestSchedule_FailedParentBlocksChild(t *testing.T) {
	g := diamondGraph(t)

	var mu sync.Mutex
	var ran []string

	err := Schedule(context.Background(), g, 1, func(ctx context.Context, table string) error {
		mu.Lock()
		ran = append(ran, table)
		mu.Unlock()
		if table == "users" {
			return errors.New("users failed")
		}
		return nil
	})

	require.Error(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, ran, "audit", "child of failed parent must not run")
}

func TestSchedule_SingleWorkerDoesNotDeadlock(t *testing.T) {
	g := diamondGraph(t)

	err := Schedule(context.Background(), g, 1, func(ctx context.Context, table string) error {
		return nil
	})

	require.NoError(t, err)
}

func TestSchedule_ContextCancellation(t *testing.T) {
	g := diamondGraph(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Schedule(ctx, g, 2, func(ctx context.Context, table string) error {
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}
