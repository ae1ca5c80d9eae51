package quirks

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/reflector"
	"github.com/roach88/gistub/internal/testutil"
)

func reflectFake(t *testing.T, ns *testutil.FakeNamespace) (*testutil.FakeBinding, *reflector.Raw) {
	t.Helper()
	f := testutil.NewFakeBinding(ns)
	gate := reflector.NewGate(f, []reflector.Spec{{Name: ns.Name, Version: ns.Version}})
	r := reflector.New(gate, f, f, reflector.Precedence{}, nil)
	raw, err := r.Reflect(context.Background(), reflector.Request{Namespace: ns.Name})
	require.NoError(t, err)
	return f, raw
}

func TestDetect_RuntimeDeprecation(t *testing.T) {
	f, raw := reflectFake(t, testutil.CoreNamespace())
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{CPrefix: "G"})

	dep := rep.Entity("init").Deprecation
	require.NotNil(t, dep)
	assert.Equal(t, "Core.init is deprecated; use Core.setup() instead", dep.Message)
	assert.Equal(t, "Core.setup()", dep.Replacement)
	assert.Equal(t, "runtime", dep.Source)

	assert.Nil(t, rep.Entity("Widget").Deprecation)
	assert.Equal(t, 1, f.Accesses("Core.Widget.show"), "members are probed")
}

func TestDetect_JoinsWarningsAndFallsBackToLowLevelFlag(t *testing.T) {
	ns := &testutil.FakeNamespace{
		Name: "Old", Version: "1.0",
		Entities: []reflector.LowEntity{
			{Name: "a", Kind: "function"},
			{Name: "b", Kind: "function", Deprecated: true},
			{Name: "C", Kind: "class", Methods: []reflector.LowEntity{{Name: "m", Deprecated: true}}},
		},
		Warnings: map[string][]string{
			"a": {"a is deprecated.", "Please use `b_new` for new code."},
		},
	}
	f, raw := reflectFake(t, ns)
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})

	a := rep.Entity("a").Deprecation
	require.NotNil(t, a)
	assert.Equal(t, "a is deprecated. Please use `b_new` for new code", a.Message)
	assert.Equal(t, "b_new", a.Replacement)

	b := rep.Entity("b").Deprecation
	require.NotNil(t, b)
	assert.Equal(t, ir.Deprecation{Message: "deprecated", Source: "lowlevel"}, *b)

	require.NotNil(t, rep.Method("C", "m").Deprecation)
}

func TestDetect_SurfaceDiff(t *testing.T) {
	core := testutil.CoreNamespace()
	core.Surface = &reflector.WrapperSurface{Entities: []reflector.WrapperEntity{
		{
			Name: "Widget",
			Members: []reflector.WrapperMember{
				{Name: "show"},
				{Name: "new", Kind: "constructor"},
				{Name: "freeze", Kind: "method"},
				{Name: "label", Kind: "property"},
				{Name: "extra", Kind: "property", Type: "gint"},
			},
		},
		{Name: "Object", Members: nil},
		{Name: "Error"}, {Name: "GError"}, {Name: "init"}, {Name: "MAJOR_VERSION"},
		{Name: "helper", Kind: "function"},
	}}
	f, raw := reflectFake(t, core)
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})

	assert.Equal(t, Tag(""), rep.Method("Widget", "show").Tag)
	assert.True(t, rep.Method("Widget", "freeze").Added())
	assert.True(t, rep.Method("Widget", "get_size").Hidden())
	assert.Zero(t, f.Accesses("Core.Widget.get_size"), "hidden members are not probed")

	assert.Equal(t, Tag(""), rep.Property("Widget", "label").Tag)
	assert.True(t, rep.Property("Widget", "extra").Added())

	assert.True(t, rep.Entity("Align").Hidden(), "enumerated top level without Align")
	assert.True(t, rep.Entity("helper").Added())
	assert.Equal(t, Tag(""), rep.Entity("Object").Tag)
}

func TestDetect_SurfaceDiffCoversEveryMemberKind(t *testing.T) {
	ns := &testutil.FakeNamespace{
		Name: "Priv", Version: "1.0",
		Entities: []reflector.LowEntity{{
			Name: "C", Kind: "class",
			Methods:    []reflector.LowEntity{{Name: "m"}},
			Properties: []reflector.LowProperty{{Name: "secret", Type: "utf8", Readable: true}},
			Fields:     []reflector.LowField{{Name: "priv", Type: "gint"}},
			Signals:    []reflector.LowSignal{{Name: "poked", Return: "none"}},
		}},
		Surface: &reflector.WrapperSurface{Entities: []reflector.WrapperEntity{
			{Name: "C", Members: []reflector.WrapperMember{}},
		}},
	}
	f, raw := reflectFake(t, ns)
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})

	assert.True(t, rep.Method("C", "m").Hidden())
	assert.True(t, rep.Field("C", "priv").Hidden())
	assert.True(t, rep.Property("C", "secret").Hidden())
	assert.True(t, rep.Signal("C", "poked").Hidden())
}

func TestDetect_WrapperOnlySignalIsAdded(t *testing.T) {
	core := testutil.CoreNamespace()
	core.Surface = &reflector.WrapperSurface{Entities: []reflector.WrapperEntity{
		{Name: "Widget", Members: []reflector.WrapperMember{
			{Name: "clicked", Kind: "signal"},
			{Name: "resized", Kind: "signal"},
		}},
	}}
	f, raw := reflectFake(t, core)
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})

	assert.Equal(t, Tag(""), rep.Signal("Widget", "clicked").Tag)
	assert.True(t, rep.Signal("Widget", "resized").Added())
	assert.True(t, rep.Property("Widget", "label").Hidden())
}

func TestDetect_NoDiffWithoutEnumeration(t *testing.T) {
	f, raw := reflectFake(t, testutil.CoreNamespace())
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})

	for _, e := range raw.Entities {
		assert.Equal(t, Tag(""), rep.Entity(e.Name).Tag, e.Name)
	}
	assert.Equal(t, Tag(""), rep.Method("Widget", "get_size").Tag)
	assert.Equal(t, Tag(""), rep.Property("Widget", "label").Tag)
	assert.Equal(t, Tag(""), rep.Signal("Widget", "clicked").Tag)
}

func TestDetect_OverrideHideIsHonored(t *testing.T) {
	core := testutil.CoreNamespace()
	f := testutil.NewFakeBinding(core)
	gate := reflector.NewGate(f, []reflector.Spec{{Name: "Core", Version: "1.0"}})
	raw, err := reflector.New(gate, f, f, reflector.Precedence{}, nil).Reflect(context.Background(), reflector.Request{
		Namespace: "Core",
		Overrides: []config.OverrideSpec{{Namespace: "Core", Entity: "Widget", Hide: []string{"show", "label"}}},
	})
	require.NoError(t, err)

	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{})
	assert.True(t, rep.Method("Widget", "show").Hidden())
	assert.True(t, rep.Property("Widget", "label").Hidden())
	assert.Zero(t, f.Accesses("Core.Widget.show"))
	assert.Equal(t, Tag(""), rep.Method("Widget", "get_size").Tag, "no enumeration, no diff")
}

func TestDetect_ProbeFaultsAreContained(t *testing.T) {
	ns := &testutil.FakeNamespace{
		Name: "Flaky", Version: "1.0",
		Entities: []reflector.LowEntity{
			{Name: "Boom", Kind: "class", Methods: []reflector.LowEntity{{Name: "m"}}},
			{Name: "Err", Kind: "function"},
			{Name: "Fine", Kind: "class", Methods: []reflector.LowEntity{{Name: "broken"}, {Name: "ok"}}},
		},
		Panics:   map[string]string{"Boom": "SIGSEGV in getattr"},
		Faults:   map[string]error{"Err": fmt.Errorf("TypeError"), "Fine.broken": fmt.Errorf("AttributeError")},
		Warnings: map[string][]string{"Fine.ok": {"ok is deprecated"}},
	}
	f, raw := reflectFake(t, ns)

	var rep *Report
	require.NotPanics(t, func() {
		rep = NewDetector(f, nil).Detect(context.Background(), raw, Options{})
	})

	assert.Contains(t, rep.Entity("Boom").Fault, "SIGSEGV in getattr")
	assert.Zero(t, f.Accesses("Flaky.Boom.m"), "members of a faulted entity are not probed")
	assert.Contains(t, rep.Entity("Err").Fault, "TypeError")
	assert.Contains(t, rep.Method("Fine", "broken").Fault, "AttributeError")
	assert.NotNil(t, rep.Method("Fine", "ok").Deprecation, "siblings still probed")

	require.Len(t, rep.Diagnostics, 3)
	for _, d := range rep.Diagnostics {
		assert.Equal(t, ir.DiagProbeFault, d.Code)
	}
	assert.Equal(t, "Fine.broken", rep.Diagnostics[2].Entity)
}

func TestDetect_DuplicateIdentity(t *testing.T) {
	f, raw := reflectFake(t, testutil.CoreNamespace())
	rep := NewDetector(f, nil).Detect(context.Background(), raw, Options{CPrefix: "G"})

	canonical, ok := rep.CanonicalOf("GError")
	require.True(t, ok)
	assert.Equal(t, "Error", canonical)
	_, ok = rep.CanonicalOf("Error")
	assert.False(t, ok)
}

func TestBetter_Ranking(t *testing.T) {
	assert.True(t, better("Error", "GError", "G"), "non-prefixed wins")
	assert.False(t, better("GError", "Error", "G"))
	assert.True(t, better("Error", "GError", ""), "shorter wins without prefix")
	assert.False(t, better("Pad", "Bus", ""), "tie keeps first seen")
	assert.True(t, better("GLongName", "GLongerName", "G"), "both prefixed, shorter wins")
	assert.True(t, better("G", "Gx", "G"), "a bare prefix does not count as prefixed")
}

func TestReplacement(t *testing.T) {
	for msg, want := range map[string]string{
		"Gtk.Widget.show_all is deprecated, use show() instead": "show()",
		"use `Gst.Pad.link_full` instead.":                      "Gst.Pad.link_full",
		"Please use GLib.MainLoop":                               "GLib.MainLoop",
		"deprecated since 3.10":                                  "",
	} {
		assert.Equal(t, want, Replacement(msg), msg)
	}
}
