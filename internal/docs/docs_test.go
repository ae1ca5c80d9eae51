package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/ir"
)

func loadGst(t *testing.T) *Index {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "Gst-1.0.gir"))
	require.NoError(t, err)
	defer f.Close()
	ix, err := Parse(f, "Gst")
	require.NoError(t, err)
	return ix
}

func TestParse_TopLevel(t *testing.T) {
	ix := loadGst(t)

	assert.Equal(t, "The major version of GStreamer at compile time.", ix.Text(KindConstant, "VERSION_MAJOR"))

	init, ok := ix.Lookup(KindFunction, "init")
	require.True(t, ok)
	assert.Equal(t, "Initializes the GStreamer library. Call `Gst.init_check` to avoid aborting.", init.Text)
	assert.Equal(t, "pointer to application's argv, or None", init.Params["argv"])

	vs, ok := ix.Lookup(KindFunction, "version_string")
	require.True(t, ok)
	assert.Empty(t, vs.Text)
	assert.Equal(t, "a newly allocated version string", vs.Return)
}

func TestParse_KindsDoNotCollide(t *testing.T) {
	ix := loadGst(t)
	assert.Contains(t, ix.Text(KindFunction, "init"), "Initializes")
	assert.Equal(t, "Same local name as the function, different kind.", ix.Text(KindEnum, "init"))
	assert.Empty(t, ix.Text(KindConstant, "init"))
}

func TestParse_ClassMembers(t *testing.T) {
	ix := loadGst(t)

	assert.Equal(t,
		"Gst.Bin is an element that can contain other Gst.Element, allowing them to be managed as a group. Returns True.",
		ix.Text(KindClass, "Bin"))

	ctor, ok := ix.Lookup(KindMethod, "Bin.new")
	require.True(t, ok)
	assert.Equal(t, "Creates a new bin with the given `name`.", ctor.Text)
	assert.Equal(t, "the name of the new bin", ctor.Params["name"])
	assert.Equal(t, "a new Gst.Bin", ctor.Return)

	add, ok := ix.Lookup(KindMethod, "Bin.add")
	require.True(t, ok)
	assert.Equal(t, "Use `Gst.bin_add_many` instead.", add.Deprecated)
	assert.NotContains(t, add.Params, "bin", "instance parameter is not a parameter")

	assert.Equal(t, "Method to add an element.", ix.Text(KindMethod, "Bin.do_add_element"))
	assert.Contains(t, ix.Text(KindProperty, "Bin:async-handling"), "If set to True")
	assert.Equal(t, "the number of children in this bin", ix.Text(KindField, "Bin.numchildren"))

	sig, ok := ix.Lookup(KindSignal, "Bin::element-added")
	require.True(t, ok)
	assert.Equal(t, "the Gst.Element that was added to the bin", sig.Params["element"])
}

func TestParse_EnumMembersIgnoreCase(t *testing.T) {
	ix := loadGst(t)
	assert.Equal(t, "the element is PLAYING, see Gst.STATE_PAUSED", ix.Text(KindMember, "State.PLAYING"))
	assert.Equal(t, ix.Text(KindMember, "State.PLAYING"), ix.Text(KindMember, "State.playing"))
}

func TestParse_WrongNamespace(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "Gst-1.0.gir"))
	require.NoError(t, err)
	defer f.Close()
	_, err = Parse(f, "Gtk")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	p := Prefixes{Namespace: "Gst", Identifier: []string{"Gst"}, Symbol: []string{"gst"}}
	for _, tc := range []struct{ in, want string }{
		{"returns %NULL on error", "returns None on error"},
		{"%TRUE if ok, FALSE otherwise", "True if ok, False otherwise"},
		{"the @element to add", "the `element` to add"},
		{"a #GstBin or a #GObject", "a Gst.Bin or a GObject"},
		{"see %GST_STATE_PLAYING and %G_MAXINT", "see Gst.STATE_PLAYING and G_MAXINT"},
		{"call gst_bin_new() or g_object_new()", "call `Gst.bin_new` or `g_object_new`"},
		{`set_\*() is \(not\) C:\path`, `set_*() is (not) C:\path`},
		{"ANULL stays", "ANULL stays"},
		{"  padded  ", "padded"},
		{"", ""},
	} {
		assert.Equal(t, tc.want, Translate(tc.in, p), tc.in)
	}
}

func TestTranslate_DefaultsToNamespacePrefixes(t *testing.T) {
	got := Translate("#GtkWidget via gtk_widget_show() and %GTK_ALIGN_START", Prefixes{Namespace: "Gtk"})
	assert.Equal(t, "Gtk.Widget via `Gtk.widget_show` and Gtk.ALIGN_START", got)
}

func TestMatcher_MissingFileIsSilent(t *testing.T) {
	m := NewMatcher(DirSource{Paths: []string{t.TempDir()}}, nil)
	ix, diags := m.Match(context.Background(), "Gst", "1.0")
	assert.NotNil(t, ix)
	assert.Zero(t, ix.Len())
	assert.Empty(t, diags)
}

func TestMatcher_SearchPathOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "Gst-1.0.gir"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(second, "Gst-1.0.gir"), data, 0o644))

	m := NewMatcher(DirSource{Paths: []string{first, second}}, nil)
	ix, diags := m.Match(context.Background(), "Gst", "1.0")
	assert.Empty(t, diags)
	assert.NotZero(t, ix.Len())
}

func TestMatcher_MalformedDegrades(t *testing.T) {
	src := FSSource{FS: fstest.MapFS{
		"Gst-1.0.gir": {Data: []byte("<repository><namespace name=\"Gst\"><class name=")},
	}}
	m := NewMatcher(src, nil)

	ix, diags := m.Match(context.Background(), "Gst", "1.0")
	assert.Zero(t, ix.Len())
	require.Len(t, diags, 1)
	assert.Equal(t, ir.DiagDocParse, diags[0].Code)
	assert.Equal(t, ir.SeverityWarning, diags[0].Severity)
	assert.True(t, strings.HasPrefix(diags[0].Message, "Gst-1.0.gir: "))
}

func TestMatcher_ExplicitFile(t *testing.T) {
	m := NewMatcher(DirSource{Files: map[string]string{"Gst": filepath.Join("testdata", "Gst-1.0.gir")}}, nil)
	ix, diags := m.Match(context.Background(), "Gst", "9.9")
	assert.Empty(t, diags)
	assert.NotZero(t, ix.Len())
}

func TestIndex_NilIsEmpty(t *testing.T) {
	var ix *Index
	_, ok := ix.Lookup(KindClass, "Bin")
	assert.False(t, ok)
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.Text(KindClass, "Bin"))
}
