package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Deterministic(t *testing.T) {
	out, err := execute(t, "verify", projectManifest)
	require.NoError(t, err)
	assert.Contains(t, out, "2 file(s) identical across runs")
}

func TestVerify_JSON(t *testing.T) {
	out, err := execute(t, "verify", projectManifest, "--format", "json")
	require.NoError(t, err)

	var result VerifyResult
	decodeData(t, out, &result)
	assert.True(t, result.Idempotent)
	assert.Equal(t, 2, result.Files)
	assert.True(t, result.Comparison.Empty())
	assert.NotEmpty(t, result.RunDigest)
}

func TestVerify_Cycle(t *testing.T) {
	_, err := execute(t, "verify", cycleManifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestVerify_MissingSnapshots(t *testing.T) {
	_, err := execute(t, "verify", projectManifest, "--snapshots", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
