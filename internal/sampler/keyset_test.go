package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySet_AddAndLen(t *testing.T) {
	ks := NewKeySet("users", []string{"id"})

	require.NoError(t, ks.Add([]interface{}{int64(1)}))
	require.NoError(t, ks.Add([]interface{}{int64(2)}))

	assert.Equal(t, 2, ks.Len())
	assert.Equal(t, "users", ks.Table())
	assert.Equal(t, []string{"id"}, ks.Columns())
}

func TestKeySet_AddWidthMismatch(t *testing.T) {
	ks := NewKeySet("users", []string{"id", "email"})

	err := ks.Add([]interface{}{int64(1)})
	assert.Error(t, err)
}

func TestKeySet_AddAfterFreeze(t *testing.T) {
	ks := NewKeySet("users", []string{"id"})
	ks.Freeze()

	err := ks.Add([]interface{}{int64(1)})
	assert.Error(t, err)
	assert.True(t, ks.Frozen())
}

func TestKeySet_TuplesRequiresFrozen(t *testing.T) {
	ks := NewKeySet("users", []string{"id"})
	require.NoError(t, ks.Add([]interface{}{int64(1)}))

	_, err := ks.Tuples([]string{"id"})
	assert.Error(t, err)
}

func TestKeySet_TuplesProjection(t *testing.T) {
	ks := NewKeySet("users", []string{"id", "email"})
	require.NoError(t, ks.Add([]interface{}{int64(1), "a@example.com"}))
	require.NoError(t, ks.Add([]interface{}{int64(2), "b@example.com"}))
	ks.Freeze()

	tuples, err := ks.Tuples([]string{"email"})
	require.NoError(t, err)

	assert.Equal(t, [][]interface{}{
		{"a@example.com"},
		{"b@example.com"},
	}, tuples)
}

func TestKeySet_TuplesDeduplicates(t *testing.T) {
	ks := NewKeySet("orders", []string{"id", "user_id"})
	require.NoError(t, ks.Add([]interface{}{int64(1), int64(7)}))
	require.NoError(t, ks.Add([]interface{}{int64(2), int64(7)}))
	require.NoError(t, ks.Add([]interface{}{int64(3), int64(9)}))
	ks.Freeze()

	tuples, err := ks.Tuples([]string{"user_id"})
	require.NoError(t, err)

	assert.Equal(t, [][]interface{}{{int64(7)}, {int64(9)}}, tuples)
}

func TestKeySet_TuplesSkipsNull(t *testing.T) {
	ks := NewKeySet("orders", []string{"id", "user_id"})
	require.NoError(t, ks.Add([]interface{}{int64(1), int64(7)}))
	require.NoError(t, ks.Add([]interface{}{int64(2), nil}))
	ks.Freeze()

	tuples, err := ks.Tuples([]string{"user_id"})
	require.NoError(t, err)

	// A NULL key can never satisfy a foreign key match.
	assert.Equal(t, [][]interface{}{{int64(7)}}, tuples)
}

func TestKeySet_TuplesUnknownColumn(t *testing.T) {
	ks := NewKeySet("users", []string{"id"})
	ks.Freeze()

	_, err := ks.Tuples([]string{"missing"})
	assert.Error(t, err)
}

func TestChunkTuples(t *testing.T) {
	tuples := [][]interface{}{{1}, {2}, {3}, {4}, {5}}

	chunks := ChunkTuples(tuples, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}

func TestChunkTuples_Empty(t *testing.T) {
	assert.Nil(t, ChunkTuples(nil, 100))
}

func TestChunkTuples_InvalidSizeDefaults(t *testing.T) {
	tuples := [][]interface{}{{1}, {2}}

	chunks := ChunkTuples(tuples, 0)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)
}
