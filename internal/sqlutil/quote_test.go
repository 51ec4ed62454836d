package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdentifier("users"))
	assert.Equal(t, `"weird""name"`, QuoteIdentifier(`weird"name`))
}

func TestQuoteIdentifiers(t *testing.T) {
	assert.Equal(t, []string{`"id"`, `"email"`}, QuoteIdentifiers([]string{"id", "email"}))
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"users", "order_items", "Table1", "_hidden"}
	for _, name := range valid {
		assert.Truef(t, IsValidIdentifier(name), "%q should be valid", name)
	}

	invalid := []string{"", "users; DROP", "na me", `qu"ote`, "semi;colon"}
	for _, name := range invalid {
		assert.Falsef(t, IsValidIdentifier(name), "%q should be invalid", name)
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("users")
	assert.NoError(t, err)
	assert.Equal(t, `"users"`, quoted)

	_, err = QuoteIdentifierSafe("users; DROP")
	var invalidErr *InvalidIdentifierError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", Placeholders(1, 1))
	assert.Equal(t, "$2, $3, $4", Placeholders(2, 3))
}

func TestTuplePlaceholders(t *testing.T) {
	assert.Equal(t, "($1), ($2)", TuplePlaceholders(1, 1, 2))
	assert.Equal(t, "($1, $2), ($3, $4)", TuplePlaceholders(1, 2, 2))
	assert.Equal(t, "($5, $6)", TuplePlaceholders(5, 2, 1))
}

func TestColumnTuple(t *testing.T) {
	assert.Equal(t, `"id"`, ColumnTuple([]string{"id"}))
	assert.Equal(t, `("order_id", "warehouse_id")`, ColumnTuple([]string{"order_id", "warehouse_id"}))
}
