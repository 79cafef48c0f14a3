package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReopenDatabaseAfterRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "database.log")
	moved := filepath.Join(dir, "database.old.log")

	require.NoError(t, InitDatabase("debug", path))
	t.Cleanup(func() { _ = CloseDatabase() })

	Database().Info("first")
	require.NoError(t, os.Rename(path, moved))
	require.NoError(t, ReopenDatabase())
	Database().Info("second")
	require.NoError(t, Sync())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "second")
	assert.NotContains(t, string(current), "first")

	old, err := os.ReadFile(moved)
	require.NoError(t, err)
	assert.Contains(t, string(old), "first")
	assert.NotContains(t, string(old), "second")
}

func TestReopenDatabaseWithoutFile(t *testing.T) {
	require.NoError(t, InitDatabase("debug", "stderr"))
	t.Cleanup(func() { _ = CloseDatabase() })

	assert.NoError(t, ReopenDatabase())
}

func TestCloseDatabaseFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.log")
	require.NoError(t, InitDatabase("info", path))
	require.NoError(t, CloseDatabase())

	assert.NotNil(t, Database())
	Database().Info("dropped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "dropped"))
}
