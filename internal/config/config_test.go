package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlManifest = `
snapshot_dir: snapshots
workers: 2
docs:
  search_paths: [gir]
namespaces:
  - name: Core
    version: "1.0"
  - name: Ext
    version: "2.0"
    preloads: [Core]
    c_prefix: E
groups:
  - name: core
    namespaces: [Core]
  - name: ext
    namespaces: [Ext]
    depends_on: [core]
precedence:
  default:
    function: wrapper
  exceptions:
    - namespace: Ext
      kind: class
      source: wrapper
      reason: wrapper overrides add constructors
overrides:
  - namespace: Core
    entity: Widget
    hide: [get_n_children]
    add:
      - name: emit
        kind: method
        params:
          - {name: signal_name, type: utf8}
        returns: none
`

const tomlManifest = `
workers = 3

[[namespaces]]
name = "Core"
version = "1.0"

[[namespaces]]
name = "Ext"
version = "2.0"
preloads = ["Core"]
`

const cueManifest = `
namespaces: [
	{name: "Core", version: "1.0"},
	{name: "Ext", version: "2.0", preloads: ["Core"]},
]
groups: [
	{name: "core", namespaces: ["Core"]},
	{name: "ext", namespaces: ["Ext"], depends_on: ["core"]},
]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", yamlManifest)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, m.Namespaces, 2)
	assert.Equal(t, []string{"Core"}, m.Namespaces[1].Preloads)
	assert.Equal(t, "E", m.Namespaces[1].CPrefix)
	assert.Equal(t, filepath.Join(dir, "snapshots"), m.SnapshotDir)
	assert.Equal(t, []string{filepath.Join(dir, "gir")}, m.Docs.SearchPaths)
	assert.Equal(t, 2, m.Workers)
	assert.Equal(t, "wrapper", m.Precedence.Default["function"])
	require.Len(t, m.Overrides, 1)
	assert.Equal(t, "emit", m.Overrides[0].Add[0].Name)
	assert.Equal(t, "utf8", m.Overrides[0].Add[0].Params[0].Type)
}

func TestLoad_TOMLGetsDefaultGroup(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.toml", tomlManifest)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, m.Workers)
	require.Len(t, m.Groups, 1)
	assert.Equal(t, DefaultGroupName, m.Groups[0].Name)
	assert.Equal(t, []string{"Core", "Ext"}, m.Groups[0].Namespaces)
	assert.Equal(t, []string{DefaultDocsPath}, m.Docs.SearchPaths)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.cue", cueManifest)

	m, err := Load(path)
	require.NoError(t, err)

	require.Len(t, m.Groups, 2)
	assert.Equal(t, []string{"core"}, m.Groups[1].DependsOn)
	assert.Equal(t, DefaultWorkers, m.Workers)
}

func TestLoad_CUESchemaRejects(t *testing.T) {
	bad := `namespaces: [{name: "Core", version: "1.0"}]
precedence: default: function: "sideways"
`
	path := writeFile(t, t.TempDir(), "run.cue", bad)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownYAMLField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", "namespaces: [{name: Core}]\nbogus: 1\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("manifest.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest extension")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	m := &Manifest{
		Namespaces: []NamespaceSpec{
			{Name: "Core", Version: "one"},
			{Name: "Ext", Preloads: []string{"Missing", "Ext"}},
			{Name: "Core"},
		},
		Groups: []GroupSpec{
			{Name: "a", Namespaces: []string{"Core", "Ghost"}},
			{Name: "b", Namespaces: []string{"Core"}, DependsOn: []string{"zzz"}},
		},
		Precedence: PrecedenceSpec{
			Default:    map[string]string{"gadget": "lowlevel"},
			Exceptions: []PrecedenceException{{Namespace: "Core", Kind: "class", Source: "wrapper"}},
		},
	}

	err := m.Validate()
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	msg := err.Error()
	for _, want := range []string{
		`version "one" is not a valid version`,
		`preload "Missing" is not a declared namespace`,
		`namespace "Ext" preloads itself`,
		`namespace "Core" declared twice`,
		`namespace "Ghost" is not declared`,
		`namespace "Core" already belongs to group "a"`,
		`group "zzz" is not declared`,
		`unknown entity kind "gadget"`,
		`a reason is required`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestManifest_EmittedAndOverrides(t *testing.T) {
	m := &Manifest{
		Namespaces: []NamespaceSpec{{Name: "GLib"}, {Name: "Gst", Preloads: []string{"GLib"}}},
		Groups:     []GroupSpec{{Name: "gst", Namespaces: []string{"Gst"}}},
		Overrides: []OverrideSpec{
			{Namespace: "Gst", Entity: "Fraction"},
			{Namespace: "GLib", Entity: "Error"},
		},
	}

	assert.True(t, m.Emitted("Gst"))
	assert.False(t, m.Emitted("GLib"), "preload-only namespace")
	require.Len(t, m.OverridesFor("Gst"), 1)
	assert.Equal(t, "Fraction", m.OverridesFor("Gst")[0].Entity)

	ns, ok := m.Namespace("Gst")
	require.True(t, ok)
	assert.Equal(t, []string{"GLib"}, ns.Preloads)
}

func TestManifest_CanonicalIsStable(t *testing.T) {
	m, err := Parse([]byte(yamlManifest), FormatYAML, "run.yaml")
	require.NoError(t, err)
	m.Normalize()

	a := m.Canonical()
	b := m.Canonical()
	assert.Equal(t, a, b)
	assert.Contains(t, a, "namespaces")
	assert.Contains(t, a, "precedence")
}
