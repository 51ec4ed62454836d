package sqlutil

import (
	"fmt"
	"strings"
)

// ColumnRef identifies a column as "table.column", the shape used by
// relation overrides in the configuration.
type ColumnRef struct {
	Table  string
	Column string
}

func (r ColumnRef) String() string {
	return r.Table + "." + r.Column
}

// ParseColumnRef parses a "table.column" reference.
func ParseColumnRef(s string) (ColumnRef, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ColumnRef{}, fmt.Errorf("invalid column reference %q (expected \"table.column\")", s)
	}
	return ColumnRef{Table: parts[0], Column: parts[1]}, nil
}
