package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/store"
)

func TestHistory_RequiresDB(t *testing.T) {
	out, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "--db is required")
}

func TestHistory_Empty(t *testing.T) {
	out, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistory_TwoRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	for range 2 {
		_, err := execute(t, "generate", projectManifest, "--out", t.TempDir(), "--db", db)
		require.NoError(t, err)
	}

	out, err := execute(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var result HistoryResult
	decodeData(t, out, &result)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, int64(2), result.Runs[0].Seq)
	assert.Equal(t, store.StatusOK, result.Runs[0].Status)
	assert.Equal(t, result.Runs[0].RunDigest, result.Runs[1].RunDigest)
	require.NotNil(t, result.Latest)
	assert.True(t, result.Latest.Empty())

	text, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, text, "Latest run matches the previous one")
}

func TestHistory_DatabaseFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	t.Setenv("GISTUB_DB", db)

	_, err := execute(t, "generate", projectManifest, "--out", t.TempDir())
	require.NoError(t, err)

	out, err := execute(t, "history", "--limit", "1", "--format", "json")
	require.NoError(t, err)
	var result HistoryResult
	decodeData(t, out, &result)
	require.Len(t, result.Runs, 1)
	assert.Nil(t, result.Latest)
}
