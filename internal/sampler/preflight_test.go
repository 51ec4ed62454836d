package sampler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureOutputDirectory_TemporaryWhenUnset(t *testing.T) {
	dir, temporary, err := EnsureOutputDirectory("", nil)
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	assert.True(t, temporary)
	assert.DirExists(t, dir)
}

func TestEnsureOutputDirectory_CreatesConfigured(t *testing.T) {
	configured := filepath.Join(t.TempDir(), "out")

	dir, temporary, err := EnsureOutputDirectory(configured, nil)
	require.NoError(t, err)

	assert.Equal(t, configured, dir)
	assert.False(t, temporary)
	assert.DirExists(t, configured)
}

func TestEnsureOutputDirectory_AcceptsExistingEmpty(t *testing.T) {
	configured := t.TempDir()

	dir, temporary, err := EnsureOutputDirectory(configured, nil)
	require.NoError(t, err)

	assert.Equal(t, configured, dir)
	assert.False(t, temporary)
}

func TestEnsureOutputDirectory_RejectsNonEmpty(t *testing.T) {
	configured := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configured, "leftover.csv"), []byte("x"), 0644))

	_, _, err := EnsureOutputDirectory(configured, nil)
	assert.Error(t, err)
}
