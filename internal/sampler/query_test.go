package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableQuerySQL_Unconstrained(t *testing.T) {
	q := TableQuery{Table: "users"}

	sql, args := q.SQL(nil)

	assert.Equal(t, `SELECT * FROM "users"`, sql)
	assert.Empty(t, args)
}

func TestTableQuerySQL_SelectColumns(t *testing.T) {
	q := TableQuery{Table: "users"}

	sql, _ := q.SQL([]string{"id", "email"})

	assert.Equal(t, `SELECT "id", "email" FROM "users"`, sql)
}

func TestTableQuerySQL_Conditions(t *testing.T) {
	q := TableQuery{
		Table:      "users",
		Conditions: []string{"deleted_at IS NULL", "email ilike '%@example.com'"},
	}

	sql, args := q.SQL([]string{"id"})

	assert.Equal(t,
		`SELECT "id" FROM "users" WHERE (deleted_at IS NULL) AND (email ilike '%@example.com')`,
		sql)
	assert.Empty(t, args)
}

func TestTableQuerySQL_Limit(t *testing.T) {
	q := TableQuery{Table: "users", Limit: 300}

	sql, _ := q.SQL([]string{"id"})

	assert.Equal(t, `SELECT "id" FROM "users" LIMIT 300`, sql)
}

func TestTableQuerySQL_MembershipConstraint(t *testing.T) {
	q := TableQuery{
		Table: "orders",
		Constraints: []EdgeConstraint{
			{
				Columns: []string{"user_id"},
				Tuples:  [][]interface{}{{int64(1)}, {int64(2)}},
			},
		},
	}

	sql, args := q.SQL([]string{"id", "user_id"})

	assert.Equal(t,
		`SELECT "id", "user_id" FROM "orders" WHERE ("user_id" IN (($1), ($2)) OR ("user_id" IS NULL)) ORDER BY "user_id" NULLS LAST`,
		sql)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, args)
}

func TestTableQuerySQL_EmptyParentKeysAdmitOnlyNull(t *testing.T) {
	q := TableQuery{
		Table: "orders",
		Constraints: []EdgeConstraint{
			{Columns: []string{"user_id"}, Tuples: nil},
		},
	}

	sql, args := q.SQL([]string{"id"})

	// No parent keys sampled: only orphan-by-NULL rows qualify.
	assert.Equal(t, `SELECT "id" FROM "orders" WHERE ("user_id" IS NULL)`, sql)
	assert.Empty(t, args)
}

func TestTableQuerySQL_CompositeConstraint(t *testing.T) {
	q := TableQuery{
		Table: "shipments",
		Constraints: []EdgeConstraint{
			{
				Columns: []string{"order_id", "warehouse_id"},
				Tuples:  [][]interface{}{{int64(1), int64(10)}, {int64(2), int64(20)}},
			},
		},
	}

	sql, args := q.SQL([]string{"id"})

	assert.Equal(t,
		`SELECT "id" FROM "shipments" WHERE (("order_id", "warehouse_id") IN (($1, $2), ($3, $4)) OR ("order_id" IS NULL AND "warehouse_id" IS NULL)) ORDER BY "order_id" NULLS LAST, "warehouse_id" NULLS LAST`,
		sql)
	assert.Equal(t, []interface{}{int64(1), int64(10), int64(2), int64(20)}, args)
}

func TestTableQuerySQL_MultipleConstraintsNumberPlaceholdersSequentially(t *testing.T) {
	q := TableQuery{
		Table: "order_items",
		Constraints: []EdgeConstraint{
			{Columns: []string{"order_id"}, Tuples: [][]interface{}{{int64(1)}, {int64(2)}}},
			{Columns: []string{"product_id"}, Tuples: [][]interface{}{{int64(5)}}},
		},
	}

	sql, args := q.SQL([]string{"id"})

	assert.Contains(t, sql, `"order_id" IN (($1), ($2))`)
	assert.Contains(t, sql, `"product_id" IN (($3))`)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(5)}, args)
}

func TestTableQuerySQL_EverythingCombined(t *testing.T) {
	q := TableQuery{
		Table:      "orders",
		Conditions: []string{"status = 'paid'"},
		Constraints: []EdgeConstraint{
			{Columns: []string{"user_id"}, Tuples: [][]interface{}{{int64(1)}}},
		},
		Limit: 50,
	}

	sql, args := q.SQL([]string{"id", "user_id", "status"})

	assert.Equal(t,
		`SELECT "id", "user_id", "status" FROM "orders" WHERE (status = 'paid') AND ("user_id" IN (($1)) OR ("user_id" IS NULL)) ORDER BY "user_id" NULLS LAST LIMIT 50`,
		sql)
	assert.Equal(t, []interface{}{int64(1)}, args)
}
