package graph

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/dbsample/internal/config"
	"github.com/dbsmedya/dbsample/internal/schema"
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// ConfigError reports an override that references something the
// introspected schema does not contain. Raised at build time, before any
// sampling query runs.
type ConfigError struct {
	List   string // which override list the entry came from
	Ref    string // the offending reference
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s entry %q: %s", e.List, e.Ref, e.Reason)
}

// Overrides are the user-supplied graph mutations applied on top of the
// introspected foreign keys.
type Overrides struct {
	IgnoreTables    []string
	IgnoreRelations []config.RelationRef
	ExtendRelations []config.RelationRef
}

// OverridesFromConfig extracts the graph overrides from a run configuration.
func OverridesFromConfig(cfg *config.Config) Overrides {
	return Overrides{
		IgnoreTables:    cfg.IgnoreTables,
		IgnoreRelations: cfg.IgnoreRelations,
		ExtendRelations: cfg.ExtendRelations,
	}
}

// Builder assembles a SchemaGraph from introspected metadata and overrides.
type Builder struct {
	meta      *schema.Metadata
	overrides Overrides
}

// NewBuilder creates a graph builder.
func NewBuilder(meta *schema.Metadata, overrides Overrides) *Builder {
	return &Builder{meta: meta, overrides: overrides}
}

// Build constructs and validates the dependency graph:
//
//  1. ignored tables are checked against the metadata and removed,
//  2. introspected foreign keys plus EXTEND_RELATIONS become edges,
//  3. IGNORE_RELATIONS edges are removed by exact column identity,
//  4. edges touching ignored tables are dropped,
//  5. the result must be acyclic.
//
// Any override referencing an unknown table or column fails the build with
// a ConfigError; a remaining cycle fails it with a CycleError.
func (b *Builder) Build() (*SchemaGraph, error) {
	if b.meta == nil {
		return nil, fmt.Errorf("schema metadata is nil")
	}

	ignored := make(map[string]bool, len(b.overrides.IgnoreTables))
	for _, name := range b.overrides.IgnoreTables {
		if _, ok := b.meta.Table(name); !ok {
			return nil, &ConfigError{
				List:   "IGNORE_TABLES",
				Ref:    name,
				Reason: "table does not exist in source schema",
			}
		}
		ignored[name] = true
	}

	relations := make([]Relation, 0, len(b.meta.ForeignKeys))
	for _, fk := range b.meta.ForeignKeys {
		relations = append(relations, Relation{
			Constraint:    fk.ConstraintName,
			Child:         fk.ChildTable,
			ChildColumns:  fk.ChildColumns,
			Parent:        fk.ParentTable,
			ParentColumns: fk.ParentColumns,
		})
	}

	extended, err := b.resolveRefs("EXTEND_RELATIONS", b.overrides.ExtendRelations)
	if err != nil {
		return nil, err
	}
	for _, rel := range extended {
		if !containsRelation(relations, rel) {
			relations = append(relations, rel)
		}
	}

	removals, err := b.resolveRefs("IGNORE_RELATIONS", b.overrides.IgnoreRelations)
	if err != nil {
		return nil, err
	}
	relations = removeRelations(relations, removals)

	g := newSchemaGraph()

	names := make([]string, 0, len(b.meta.Tables))
	for i := range b.meta.Tables {
		if !ignored[b.meta.Tables[i].Name] {
			names = append(names, b.meta.Tables[i].Name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		t, _ := b.meta.Table(name)
		g.addTable(t)
	}

	for _, rel := range relations {
		if ignored[rel.Child] || ignored[rel.Parent] {
			continue
		}
		g.addRelation(rel)
	}

	// Fail fast: no processing order exists for a cyclic graph.
	if _, err := g.TopologicalOrder(); err != nil {
		return nil, err
	}

	return g, nil
}

// resolveRefs turns override entries into single-column relations,
// validating both ends against the introspected schema.
func (b *Builder) resolveRefs(list string, refs []config.RelationRef) ([]Relation, error) {
	var out []Relation
	for _, ref := range refs {
		pk, err := sqlutil.ParseColumnRef(ref.PK)
		if err != nil {
			return nil, &ConfigError{List: list, Ref: ref.PK, Reason: err.Error()}
		}
		fk, err := sqlutil.ParseColumnRef(ref.FK)
		if err != nil {
			return nil, &ConfigError{List: list, Ref: ref.FK, Reason: err.Error()}
		}

		for _, cr := range []sqlutil.ColumnRef{pk, fk} {
			if _, ok := b.meta.Table(cr.Table); !ok {
				return nil, &ConfigError{
					List:   list,
					Ref:    cr.String(),
					Reason: "table does not exist in source schema",
				}
			}
			if !b.meta.HasColumn(cr) {
				return nil, &ConfigError{
					List:   list,
					Ref:    cr.String(),
					Reason: "column does not exist in source schema",
				}
			}
		}

		out = append(out, Relation{
			Child:         fk.Table,
			ChildColumns:  []string{fk.Column},
			Parent:        pk.Table,
			ParentColumns: []string{pk.Column},
		})
	}
	return out, nil
}

// sameEndpoints compares two relations by (parent column, child column)
// identity, the matching rule for overrides.
func sameEndpoints(a, b Relation) bool {
	if a.Child != b.Child || a.Parent != b.Parent ||
		len(a.ChildColumns) != len(b.ChildColumns) ||
		len(a.ParentColumns) != len(b.ParentColumns) {
		return false
	}
	for i := range a.ChildColumns {
		if a.ChildColumns[i] != b.ChildColumns[i] {
			return false
		}
	}
	for i := range a.ParentColumns {
		if a.ParentColumns[i] != b.ParentColumns[i] {
			return false
		}
	}
	return true
}

func containsRelation(relations []Relation, rel Relation) bool {
	for _, r := range relations {
		if sameEndpoints(r, rel) {
			return true
		}
	}
	return false
}

func removeRelations(relations, removals []Relation) []Relation {
	if len(removals) == 0 {
		return relations
	}
	out := relations[:0]
	for _, r := range relations {
		if !containsRelation(removals, r) {
			out = append(out, r)
		}
	}
	return out
}

// BuildFromConfig is a convenience wrapper building a graph directly from
// metadata and a run configuration.
func BuildFromConfig(meta *schema.Metadata, cfg *config.Config) (*SchemaGraph, error) {
	return NewBuilder(meta, OverridesFromConfig(cfg)).Build()
}
