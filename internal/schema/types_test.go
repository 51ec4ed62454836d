package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

func TestTable_HasColumn(t *testing.T) {
	table := Table{
		Name:    "users",
		Columns: []Column{{Name: "id"}, {Name: "email"}},
	}

	assert.True(t, table.HasColumn("id"))
	assert.False(t, table.HasColumn("missing"))
}

func TestMetadata_Lookup(t *testing.T) {
	meta := &Metadata{
		Tables: []Table{
			{Name: "users", Columns: []Column{{Name: "id"}}},
		},
	}

	_, ok := meta.Table("users")
	assert.True(t, ok)
	_, ok = meta.Table("ghost")
	assert.False(t, ok)

	assert.True(t, meta.HasColumn(sqlutil.ColumnRef{Table: "users", Column: "id"}))
	assert.False(t, meta.HasColumn(sqlutil.ColumnRef{Table: "users", Column: "nope"}))
	assert.False(t, meta.HasColumn(sqlutil.ColumnRef{Table: "ghost", Column: "id"}))
}
