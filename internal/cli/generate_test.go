package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/store"
)

func TestGenerate_WritesTree(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "generate", projectManifest, "--out", dir, "--format", "json")
	require.NoError(t, err)

	var result GenerateResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "core/gi-stubs/repository/Core.pyi", result.Files[0].Path)
	assert.Equal(t, "ext/gi-stubs/repository/Ext.pyi", result.Files[1].Path)
	assert.Empty(t, result.Failed)
	assert.NotEmpty(t, result.RunDigest)

	core, err := os.ReadFile(filepath.Join(dir, "core", "gi-stubs", "repository", "Core.pyi"))
	require.NoError(t, err)
	assert.Contains(t, string(core), "GError = Error\n")
	assert.Contains(t, string(core), `"""The major version."""`)
	assert.Contains(t, string(core), "@typing_extensions.deprecated(")
	assert.Equal(t, result.Files[0].Size, len(core))

	ext, err := os.ReadFile(filepath.Join(dir, "ext", "gi-stubs", "repository", "Ext.pyi"))
	require.NoError(t, err)
	assert.Contains(t, string(ext), "class Fancy(Core.Widget):")

	var unresolved int
	for _, d := range result.Diagnostics {
		if d.Code == ir.DiagUnresolved {
			unresolved++
		}
	}
	assert.Positive(t, unresolved)
}

func TestGenerate_TextSummary(t *testing.T) {
	out, err := execute(t, "generate", projectManifest, "--out", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "core/gi-stubs/repository/Core.pyi")
	assert.Contains(t, out, "2 file(s) written")
}

func TestGenerate_DumpIR(t *testing.T) {
	irDir := filepath.Join(t.TempDir(), "ir")
	_, err := execute(t, "generate", projectManifest, "--out", t.TempDir(), "--dump-ir", irDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(irDir, "Core-1.0.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Core"`)
	assert.FileExists(t, filepath.Join(irDir, "Ext-2.0.json"))
}

func TestGenerate_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "generate", projectManifest, "--out", t.TempDir(), "--db", db, "--format", "json")
	require.NoError(t, err)
	var result GenerateResult
	decodeData(t, out, &result)
	require.NotEmpty(t, result.RunID)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusOK, run.Status)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, result.RunDigest, run.RunDigest)
}

func TestGenerate_TOMLManifestUsesDefaultGroup(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "generate", tomlManifest, "--out", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "stubs", "gi-stubs", "repository", "Core.pyi"))
}

func TestGenerate_CycleIsFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "generate", cycleManifest, "--out", t.TempDir(), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusFailed, runs[0].Status)
}

func TestGenerate_MissingSnapshotDir(t *testing.T) {
	_, err := execute(t, "generate", projectManifest, "--out", t.TempDir(), "--snapshots", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerate_SkippedNamespaceIsPartial(t *testing.T) {
	dumps := t.TempDir()
	core, err := os.ReadFile("testdata/project/dumps/Core-1.0.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dumps, "Core-1.0.yaml"), core, 0o644))

	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "generate", projectManifest, "--out", t.TempDir(), "--snapshots", dumps, "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result GenerateResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, []string{"Ext"}, result.Failed)
	require.Len(t, result.Files, 1)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	run, err := st.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPartial, run.Status)
	assert.Equal(t, []string{"Ext"}, run.Failed)
}

func TestWatchPaths(t *testing.T) {
	m, err := loadManifest(&OutputFormatter{Format: "json", Writer: io.Discard}, projectManifest)
	require.NoError(t, err)

	paths := watchPaths(projectManifest, m, "")
	require.Len(t, paths, 3)
	assert.Equal(t, projectManifest, paths[0])
	assert.Equal(t, "dumps", filepath.Base(paths[1]))
	assert.Equal(t, "gir", filepath.Base(paths[2]))

	assert.Equal(t, "elsewhere", watchPaths(projectManifest, m, "elsewhere")[1])
}
