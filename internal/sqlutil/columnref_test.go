package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumnRef(t *testing.T) {
	ref, err := ParseColumnRef("users.id")
	require.NoError(t, err)
	assert.Equal(t, "users", ref.Table)
	assert.Equal(t, "id", ref.Column)
	assert.Equal(t, "users.id", ref.String())
}

func TestParseColumnRef_Invalid(t *testing.T) {
	cases := []string{"", "users", "users.", ".id", "a.b.c"}
	for _, input := range cases {
		_, err := ParseColumnRef(input)
		assert.Errorf(t, err, "input %q should not parse", input)
	}
}
