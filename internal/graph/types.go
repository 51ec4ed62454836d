// Package graph provides the relation dependency graph for dbsample:
// tables as nodes, foreign key relations as directed edges, and the
// topological machinery the sampling pipeline is scheduled by.
package graph

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/dbsample/internal/schema"
)

// Relation is a directed foreign key edge: the child table's columns
// reference the parent table's columns. Column slices are parallel.
type Relation struct {
	Constraint    string // constraint name when introspected, empty for extended relations
	Child         string
	ChildColumns  []string
	Parent        string
	ParentColumns []string
}

func (r Relation) String() string {
	return fmt.Sprintf("%s(%s) -> %s(%s)",
		r.Child, joinColumns(r.ChildColumns),
		r.Parent, joinColumns(r.ParentColumns))
}

// SelfReferencing reports whether the relation points at its own table.
func (r Relation) SelfReferencing() bool {
	return r.Child == r.Parent
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// SchemaGraph is the validated, immutable dependency graph of a sampling
// run. Built once at startup; never mutated afterwards.
type SchemaGraph struct {
	tables    *orderedmap.OrderedMap[string, *schema.Table]
	relations []Relation
	outgoing  map[string][]Relation // child table -> relations it holds
	incoming  map[string][]Relation // parent table -> relations referencing it
}

func newSchemaGraph() *SchemaGraph {
	return &SchemaGraph{
		tables:   orderedmap.NewOrderedMap[string, *schema.Table](),
		outgoing: make(map[string][]Relation),
		incoming: make(map[string][]Relation),
	}
}

func (g *SchemaGraph) addTable(t *schema.Table) {
	g.tables.Set(t.Name, t)
}

func (g *SchemaGraph) addRelation(r Relation) {
	g.relations = append(g.relations, r)
	g.outgoing[r.Child] = append(g.outgoing[r.Child], r)
	g.incoming[r.Parent] = append(g.incoming[r.Parent], r)
}

// Table returns the table with the given name, or nil if absent.
func (g *SchemaGraph) Table(name string) *schema.Table {
	t, _ := g.tables.Get(name)
	return t
}

// HasTable reports whether the graph contains the named table.
func (g *SchemaGraph) HasTable(name string) bool {
	_, ok := g.tables.Get(name)
	return ok
}

// TableNames returns all table names in deterministic (insertion) order.
func (g *SchemaGraph) TableNames() []string {
	return g.tables.Keys()
}

// Tables returns all tables in deterministic order.
func (g *SchemaGraph) Tables() []*schema.Table {
	out := make([]*schema.Table, 0, g.tables.Len())
	for el := g.tables.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Relations returns every foreign key edge in the graph.
func (g *SchemaGraph) Relations() []Relation {
	return g.relations
}

// Outgoing returns the relations held by the given child table, one per
// foreign key it carries.
func (g *SchemaGraph) Outgoing(table string) []Relation {
	return g.outgoing[table]
}

// Incoming returns the relations referencing the given parent table.
func (g *SchemaGraph) Incoming(table string) []Relation {
	return g.incoming[table]
}

// Parents returns the distinct parent tables the given table depends on.
func (g *SchemaGraph) Parents(table string) []string {
	seen := make(map[string]bool)
	var parents []string
	for _, r := range g.outgoing[table] {
		if !seen[r.Parent] {
			seen[r.Parent] = true
			parents = append(parents, r.Parent)
		}
	}
	return parents
}

// Children returns the distinct child tables depending on the given table.
func (g *SchemaGraph) Children(table string) []string {
	seen := make(map[string]bool)
	var children []string
	for _, r := range g.incoming[table] {
		if !seen[r.Child] {
			seen[r.Child] = true
			children = append(children, r.Child)
		}
	}
	return children
}

// Entrypoints returns tables with no foreign keys of their own. Their
// samples are shaped purely by query modifiers, so they anchor the run.
func (g *SchemaGraph) Entrypoints() []string {
	var out []string
	for _, name := range g.TableNames() {
		if len(g.outgoing[name]) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// ReferencedColumnSets returns the distinct parent-side column lists that
// child relations reference on the given table. The planner projects these
// alongside the primary key when capturing a table's sampled keys.
func (g *SchemaGraph) ReferencedColumnSets(table string) [][]string {
	seen := make(map[string]bool)
	var sets [][]string
	for _, r := range g.incoming[table] {
		key := joinColumns(r.ParentColumns)
		if !seen[key] {
			seen[key] = true
			sets = append(sets, r.ParentColumns)
		}
	}
	return sets
}

// NodeCount returns the number of tables in the graph.
func (g *SchemaGraph) NodeCount() int {
	return g.tables.Len()
}

// EdgeCount returns the number of relations in the graph.
func (g *SchemaGraph) EdgeCount() int {
	return len(g.relations)
}
