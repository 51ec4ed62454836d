package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestValidateCommand_RejectsMalformedConfig(t *testing.T) {
	// No database URLs: shape validation must fail before any connection
	// attempt is made.
	path := writeConfigFile(t, `{"QUERY_MODIFIERS": {"_default": {"limit": -5}}}`)

	err := runValidate(validateCmd, []string{path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "validation failed")
	require.Contains(t, err.Error(), "SOURCE_DATABASE_URL")
	require.Contains(t, err.Error(), "limit")
}

func TestSampleCommand_RejectsMalformedConfig(t *testing.T) {
	path := writeConfigFile(t, `{"SOURCE_DATABASE_URL": "postgres://s"}`)

	err := runSample(sampleCmd, []string{path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid config")
	require.Contains(t, err.Error(), "TARGET_DATABASE_URL")
}
