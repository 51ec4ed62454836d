// Package schema provides source database metadata: tables, columns,
// primary keys and foreign key constraints.
package schema

import (
	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// Column describes a single table column as introspected from the source.
type Column struct {
	Name     string
	DataType string
	Nullable bool
	Position int // 1-based ordinal position
}

// Table describes an introspected table. Immutable after introspection.
type Table struct {
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string // PK column names in key order, empty if none
}

// ColumnNames returns the column names in source ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ForeignKey describes a foreign key constraint: child columns referencing
// parent columns. Column slices are parallel and ordered by constraint
// position.
type ForeignKey struct {
	ConstraintName string
	ChildTable     string
	ChildColumns   []string
	ParentTable    string
	ParentColumns  []string
}

// Metadata is the full introspected picture of the source schema.
type Metadata struct {
	Tables      []Table
	ForeignKeys []ForeignKey
}

// Table returns the table with the given name, if present.
func (m *Metadata) Table(name string) (*Table, bool) {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether table.column exists in the metadata.
func (m *Metadata) HasColumn(ref sqlutil.ColumnRef) bool {
	t, ok := m.Table(ref.Table)
	if !ok {
		return false
	}
	return t.HasColumn(ref.Column)
}
