package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "testdata/scenarios"

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_NonExistentDir(t *testing.T) {
	out, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommand_AllPass(t *testing.T) {
	out, err := execute(t, "test", scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ tiny")
	assert.Contains(t, out, "✓ group_cycle")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "group_cycle", result.Scenarios[0].Name)
	assert.Equal(t, "tiny", result.Scenarios[1].Name)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "tiny", "--format", "json")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)

	out, err = execute(t, "test", scenariosDir, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_InvalidFilter(t *testing.T) {
	_, err := execute(t, "test", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_UpdateWritesGolden(t *testing.T) {
	goldenDir := filepath.Join(t.TempDir(), "golden")

	_, err := execute(t, "test", scenariosDir, "--golden-dir", goldenDir, "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(goldenDir, "tiny.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("testdata/golden/tiny.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = execute(t, "test", scenariosDir, "--golden-dir", goldenDir)
	assert.NoError(t, err)
}

func TestTestCommand_GoldenMismatchFails(t *testing.T) {
	goldenDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "tiny.golden"), []byte("stale\n"), 0o644))

	out, err := execute(t, "test", scenariosDir, "--golden-dir", goldenDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ tiny")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_MissingGoldenFails(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden-dir", t.TempDir(), "--format", "json")
	require.Error(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
}
