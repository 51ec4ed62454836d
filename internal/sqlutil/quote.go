// Package sqlutil provides SQL assembly helpers shared by the sampler
// and loader.
package sqlutil

import (
	"fmt"
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a Postgres identifier (table name, column name)
// with double quotes, escaping embedded quotes by doubling them.
// Example: "my_table" -> `"my_table"`
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteIdentifiers quotes a list of identifiers.
func QuoteIdentifiers(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdentifier(n)
	}
	return quoted
}

// validIdentifierRegex restricts identifiers to alphanumerics and
// underscores. Stricter than what Postgres allows, as a defense-in-depth
// measure for names coming from configuration.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is acceptable as a table or column
// identifier sourced from configuration.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}

// QuoteIdentifierSafe quotes an identifier after validating it.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// Placeholders returns n Postgres placeholders starting at $start, e.g.
// Placeholders(2, 3) -> "$2, $3, $4".
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// TuplePlaceholders returns n row-value placeholders of the given width
// starting at $start, e.g. TuplePlaceholders(1, 2, 2) -> "($1, $2), ($3, $4)".
func TuplePlaceholders(start, width, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = "(" + Placeholders(start+i*width, width) + ")"
	}
	return strings.Join(parts, ", ")
}

// ColumnTuple renders a quoted column list, parenthesized when it spans
// more than one column: ["a"] -> `"a"`, ["a","b"] -> `("a", "b")`.
func ColumnTuple(columns []string) string {
	quoted := strings.Join(QuoteIdentifiers(columns), ", ")
	if len(columns) > 1 {
		return "(" + quoted + ")"
	}
	return quoted
}
