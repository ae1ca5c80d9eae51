package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/builder"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/quirks"
	"github.com/roach88/gistub/internal/reflector"
	"github.com/roach88/gistub/internal/testutil"
)

// buildAll reflects and builds every fake namespace through one gate.
func buildAll(t *testing.T, specs []reflector.Spec, fakes ...*testutil.FakeNamespace) []*ir.Namespace {
	t.Helper()
	f := testutil.NewFakeBinding(fakes...)
	gate := reflector.NewGate(f, specs)
	r := reflector.New(gate, f, f, reflector.Precedence{}, nil)
	d := quirks.NewDetector(f, nil)

	var out []*ir.Namespace
	for _, s := range specs {
		raw, err := r.Reflect(context.Background(), reflector.Request{Namespace: s.Name})
		require.NoError(t, err)
		ns, err := builder.Build(raw, nil, d.Detect(context.Background(), raw, quirks.Options{}), builder.Options{})
		require.NoError(t, err)
		out = append(out, ns)
	}
	return out
}

func coreExt(t *testing.T) []*ir.Namespace {
	return buildAll(t, []reflector.Spec{
		{Name: "Core", Version: "1.0"},
		{Name: "Ext", Version: "2.0", Preloads: []string{"Core"}},
	}, testutil.CoreNamespace(), testutil.ExtNamespace())
}

func class(t *testing.T, ns *ir.Namespace, name string) *ir.Class {
	t.Helper()
	e, ok := ns.Lookup(name)
	require.True(t, ok, name)
	return e.(*ir.Class)
}

func rawRefs(ns *ir.Namespace) []string {
	var raw []string
	for _, e := range ns.Entities {
		ir.WalkRefs(e, func(path string, ref *ir.TypeRef) {
			if ref.IsRaw() {
				raw = append(raw, path)
			}
		})
	}
	return raw
}

func TestResolve_CoreExtScenario(t *testing.T) {
	nss := coreExt(t)
	plan, err := Resolve(nss, []Group{
		{Name: "ext", Namespaces: []string{"Ext"}, DependsOn: []string{"core"}},
		{Name: "core", Namespaces: []string{"Core"}},
	}, Options{})
	require.NoError(t, err)

	fancy := class(t, nss[1], "Fancy")
	require.Len(t, fancy.Bases, 1)
	assert.Equal(t, ir.RefResolved, fancy.Bases[0].Tag)
	assert.Equal(t, ir.Q("Core", "Widget"), *fancy.Bases[0].Target)

	require.Len(t, plan.Groups, 2)
	assert.Equal(t, "core", plan.Groups[0].Name)
	assert.Equal(t, "ext", plan.Groups[1].Name)
	assert.Equal(t, []string{"core"}, plan.Groups[1].DependsOn)
}

func TestResolve_SearchOrder(t *testing.T) {
	nss := coreExt(t)
	_, err := Resolve(nss, []Group{{Name: "all", Namespaces: []string{"Core", "Ext"}}}, Options{})
	require.NoError(t, err)

	sparkle := class(t, nss[1], "Fancy").Method("sparkle").Primary()
	widget := sparkle.Params[0].Type
	assert.Equal(t, "Core.Widget", widget.String(), "falls through to the preload")

	assert.Equal(t, ir.RefUnresolved, sparkle.Return.Tag)
	assert.Equal(t, "Mystery", sparkle.Return.Hint)

	var unresolved []ir.Diagnostic
	for _, d := range nss[1].Diagnostics {
		if d.Code == ir.DiagUnresolved {
			unresolved = append(unresolved, d)
		}
	}
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Fancy.sparkle()", unresolved[0].Entity)
	assert.Contains(t, unresolved[0].Message, `"Mystery"`)
}

func TestResolve_LocalShadowsPreload(t *testing.T) {
	core := ir.NewNamespace("Core", "1.0", nil)
	core.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Core", "Thing")}})
	ext := ir.NewNamespace("Ext", "1.0", []string{"Core"})
	ext.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Ext", "Thing")}})
	c := &ir.Constant{Common: ir.Common{Name: ir.Q("Ext", "DEFAULT")}, Type: ir.Raw("Thing"), Value: "..."}
	ext.Add(c)

	_, err := Resolve([]*ir.Namespace{core, ext}, []Group{{Name: "g", Namespaces: []string{"Core", "Ext"}}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Ext.Thing", c.Type.String())
}

func TestResolve_TransitivePreloadsInDeclaredOrder(t *testing.T) {
	base := ir.NewNamespace("Base", "1.0", nil)
	base.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Base", "Deep")}})
	base.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Base", "Twice")}})
	mid := ir.NewNamespace("Mid", "1.0", []string{"Base"})
	other := ir.NewNamespace("Other", "1.0", nil)
	other.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Other", "Twice")}})
	top := ir.NewNamespace("Top", "1.0", []string{"Mid", "Other"})
	deep := &ir.Constant{Common: ir.Common{Name: ir.Q("Top", "A")}, Type: ir.Raw("Deep")}
	twice := &ir.Constant{Common: ir.Common{Name: ir.Q("Top", "B")}, Type: ir.Raw("Twice")}
	top.Add(deep)
	top.Add(twice)

	_, err := Resolve([]*ir.Namespace{base, mid, other, top}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Base.Deep", deep.Type.String())
	assert.Equal(t, "Base.Twice", twice.Type.String(), "Mid's subtree is searched before Other")
}

func TestResolve_QualifiedHintNeedsDependency(t *testing.T) {
	gtk := ir.NewNamespace("Gtk", "4.0", nil)
	gtk.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Gtk", "Widget")}})
	app := ir.NewNamespace("App", "1.0", nil)
	ref := ir.Raw("Gtk.Widget")
	app.Add(&ir.Constant{Common: ir.Common{Name: ir.Q("App", "W")}, Type: ref})

	_, err := Resolve([]*ir.Namespace{gtk, app}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, ir.RefUnresolved, ref.Tag, "Gtk is not a dependency of App")
}

func TestResolve_OnlyTypesAreTargets(t *testing.T) {
	ns := ir.NewNamespace("Core", "1.0", nil)
	ns.Add(&ir.Callable{Common: ir.Common{Name: ir.Q("Core", "init")}, CallableKind: ir.KindFunction})
	ref := ir.Raw("init")
	ns.Add(&ir.Constant{Common: ir.Common{Name: ir.Q("Core", "X")}, Type: ref})

	_, err := Resolve([]*ir.Namespace{ns}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, ir.RefUnresolved, ref.Tag)
}

func TestResolve_NoRawRefsRemain(t *testing.T) {
	nss := buildAll(t, []reflector.Spec{{Name: "Core", Version: "1.0"}}, testutil.CoreNamespace())
	require.NotEmpty(t, rawRefs(nss[0]))

	_, err := Resolve(nss, []Group{{Name: "core", Namespaces: []string{"Core"}}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, rawRefs(nss[0]))

	w := class(t, nss[0], "Widget")
	assert.Equal(t, "Core.Object", w.Bases[0].String())
	assert.Equal(t, "Core.Widget", w.Method("new").Primary().Return.String())
}

func TestResolve_NestedContainerRefs(t *testing.T) {
	ns := ir.NewNamespace("Core", "1.0", nil)
	ns.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Core", "Item")}})
	ref := ir.Dict(ir.Prim(ir.PrimStr), ir.List(ir.Raw("Item")))
	ns.Add(&ir.Constant{Common: ir.Common{Name: ir.Q("Core", "ITEMS")}, Type: ref})

	_, err := Resolve([]*ir.Namespace{ns}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "dict[str, list[Core.Item]]", ref.String())
}

func TestResolve_CyclePath(t *testing.T) {
	groups := []Group{
		{Name: "A", DependsOn: []string{"B"}},
		{Name: "B", DependsOn: []string{"C"}},
		{Name: "C", DependsOn: []string{"A"}},
	}
	_, err := Resolve(nil, groups, Options{})
	require.Error(t, err)
	assert.True(t, IsCycleError(err))

	var ce *CycleError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"A", "B", "C", "A"}, ce.Path)
	assert.Equal(t, "package group cycle: A -> B -> C -> A", ce.Error())
}

func TestResolve_CycleThroughImplicitEdge(t *testing.T) {
	a := ir.NewNamespace("NsA", "1.0", []string{"NsB"})
	b := ir.NewNamespace("NsB", "1.0", nil)
	groups := []Group{
		{Name: "a", Namespaces: []string{"NsA"}},
		{Name: "b", Namespaces: []string{"NsB"}, DependsOn: []string{"a"}},
	}
	_, err := Resolve([]*ir.Namespace{a, b}, groups, Options{})
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
}

func TestResolve_ImplicitGroupEdge(t *testing.T) {
	nss := coreExt(t)
	plan, err := Resolve(nss, []Group{
		{Name: "ext", Namespaces: []string{"Ext"}},
		{Name: "core", Namespaces: []string{"Core"}},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "core", plan.Groups[0].Name)
	assert.Equal(t, []string{"core"}, plan.Groups[1].DependsOn)
	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, ir.DiagImplicitEdge, plan.Diagnostics[0].Code)
	assert.Equal(t, "Ext", plan.Diagnostics[0].Namespace)
}

func TestResolve_DeclaredOrderWithinGroup(t *testing.T) {
	var nss []*ir.Namespace
	for _, n := range []string{"Zed", "Alpha", "Mid"} {
		nss = append(nss, ir.NewNamespace(n, "1.0", nil))
	}
	plan, err := Resolve(nss, []Group{{Name: "g", Namespaces: []string{"Zed", "Alpha", "Mid"}}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Alpha", "Mid"}, plan.Groups[0].Namespaces)
}

func TestResolve_IndependentGroupsKeepDeclaredOrder(t *testing.T) {
	plan, err := Resolve(nil, []Group{{Name: "z"}, {Name: "a"}, {Name: "m", DependsOn: []string{"a"}}}, Options{})
	require.NoError(t, err)

	var names []string
	for _, g := range plan.Groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}

func TestResolve_SkipsFailedNamespace(t *testing.T) {
	nss := buildAll(t, []reflector.Spec{{Name: "Core", Version: "1.0"}}, testutil.CoreNamespace())
	plan, err := Resolve(nss, []Group{{Name: "g", Namespaces: []string{"Core", "Broken"}}}, Options{
		Failures: map[string]error{"Broken": errors.New("typelib not installed")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Core"}, plan.Groups[0].Namespaces)
	assert.Equal(t, []string{"Broken"}, plan.Skipped)
	require.Len(t, plan.Diagnostics, 1)
	d := plan.Diagnostics[0]
	assert.Equal(t, ir.DiagNamespaceSkipped, d.Code)
	assert.Equal(t, "Broken", d.Namespace)
	assert.Contains(t, d.Message, "typelib not installed")
}

func TestResolve_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		groups []Group
		code   string
	}{
		{"duplicate group", []Group{{Name: "a"}, {Name: "a"}}, ErrCodeDuplicateGroup},
		{"unknown dependency", []Group{{Name: "a", DependsOn: []string{"zz"}}}, ErrCodeUnknownGroup},
		{"namespace in two groups", []Group{
			{Name: "a", Namespaces: []string{"Core"}},
			{Name: "b", Namespaces: []string{"Core"}},
		}, ErrCodeDuplicateMembership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(nil, tt.groups, Options{})
			require.True(t, IsConfigError(err), "%v", err)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestSymbols_WriteOnce(t *testing.T) {
	ns := ir.NewNamespace("Core", "1.0", nil)
	ns.Add(&ir.Class{Common: ir.Common{Name: ir.Q("Core", "Widget")}})

	s := NewSymbols()
	require.NoError(t, s.Register(ns))
	assert.Equal(t, 1, s.Len())

	err := s.Register(ns)
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))

	_, err = Resolve([]*ir.Namespace{ns, ns}, nil, Options{})
	assert.True(t, errors.IsAssertionFailure(err))
}
