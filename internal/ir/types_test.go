package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualified(t *testing.T) {
	tests := []struct {
		in   string
		want QualifiedName
	}{
		{"Gtk.Widget", Q("Gtk", "Widget")},
		{"Widget", Q("", "Widget")},
		{"GObject.Object.notify", Q("GObject", "Object.notify")},
		{".Hidden", Q("", ".Hidden")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQualified(tt.in))
		})
	}
}

func TestQualifiedName_String(t *testing.T) {
	assert.Equal(t, "Core.Widget", Q("Core", "Widget").String())
	assert.Equal(t, "Widget", Q("", "Widget").String())
	assert.True(t, QualifiedName{}.IsZero())
}

func TestEntityKinds(t *testing.T) {
	tests := []struct {
		name string
		e    Entity
		want EntityKind
	}{
		{"class", &Class{}, KindClass},
		{"interface", &Class{Interface: true}, KindInterface},
		{"function", &Callable{CallableKind: KindFunction}, KindFunction},
		{"callback", &Callable{CallableKind: KindCallback}, KindCallback},
		{"constant", &Constant{}, KindConstant},
		{"enum", &Enum{}, KindEnum},
		{"flags", &Enum{Flags: true}, KindFlags},
		{"signal", &Signal{}, KindSignal},
		{"alias", &Alias{}, KindAlias},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Kind())
			assert.True(t, tt.want.Valid())
		})
	}
	assert.False(t, EntityKind("widget").Valid())
}

func TestTypeRef_ResolveAndClone(t *testing.T) {
	ref := List(Raw("Core.Widget"))
	clone := ref.Clone()

	ref.Elems[0].Resolve(Q("Core", "Widget"))

	assert.Equal(t, RefResolved, ref.Elems[0].Tag)
	assert.Equal(t, "Core.Widget", ref.Elems[0].Target.String())
	assert.Equal(t, RefRaw, clone.Elems[0].Tag, "clone must not share elements")
	assert.Equal(t, "list[Core.Widget]", ref.String())
}

func TestTypeRef_WalkVisitsNested(t *testing.T) {
	ref := Func(Raw("Ret"), false, Raw("A"), Dict(Prim(PrimStr), Raw("B")))

	var hints []string
	ref.Walk(func(r *TypeRef) {
		if r.IsRaw() {
			hints = append(hints, r.Hint)
		}
	})
	assert.Equal(t, []string{"A", "B", "Ret"}, hints)
}

func TestWalkRefs_Class(t *testing.T) {
	cls := &Class{
		Common: Common{Name: Q("Ext", "Fancy")},
		Bases:  []*TypeRef{Raw("Core.Widget")},
		Methods: []*Callable{{
			Common:       Common{Name: Q("Ext", "Fancy.grow")},
			CallableKind: KindMethod,
			Role:         RoleMethod,
			Signatures: []*Signature{{
				Params: []*Param{{Name: "by", Type: Prim(PrimInt)}},
				Return: Raw("Size"),
			}},
		}},
		Properties: []*Property{{Name: "label", Type: Prim(PrimStr)}},
	}

	var paths []string
	WalkRefs(cls, func(path string, r *TypeRef) {
		paths = append(paths, path+"="+r.String())
	})
	assert.Equal(t, []string{
		"Fancy<base>=raw:Core.Widget",
		"Fancy:label=str",
		"Fancy.grow(by)=int",
		"Fancy.grow()=raw:Size",
	}, paths)
}

func TestSignature_InputsOutputs(t *testing.T) {
	sig := &Signature{Params: []*Param{
		{Name: "a", Direction: DirIn},
		{Name: "b", Direction: DirOut},
		{Name: "c", Direction: DirInOut},
	}}

	var in, out []string
	for _, p := range sig.Inputs() {
		in = append(in, p.Name)
	}
	for _, p := range sig.Outputs() {
		out = append(out, p.Name)
	}
	assert.Equal(t, []string{"a", "c"}, in)
	assert.Equal(t, []string{"b", "c"}, out)
}

func TestNamespace_AddLookupOrder(t *testing.T) {
	ns := NewNamespace("Core", "1.0", nil)

	require.True(t, ns.Add(&Class{Common: Common{Name: Q("Core", "Widget")}}))
	require.True(t, ns.Add(&Constant{Common: Common{Name: Q("Core", "MAJOR")}}))
	assert.False(t, ns.Add(&Constant{Common: Common{Name: Q("Core", "Widget")}}), "duplicate local name")

	e, ok := ns.Lookup("Widget")
	require.True(t, ok)
	assert.Equal(t, KindClass, e.Kind())
	assert.Len(t, ns.Entities, 2)
	assert.Equal(t, "Core-1.0", ns.Ref())
}

func TestNamespace_MarshalJSON(t *testing.T) {
	ns := NewNamespace("Core", "1.0", nil)
	ns.Add(&Constant{Common: Common{Name: Q("Core", "MAJOR")}, Type: Prim(PrimInt), Value: "1"})

	data, err := json.Marshal(ns)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"kind":"constant"`)
	assert.Contains(t, s, `"preloads":[]`)
	assert.Contains(t, s, `"primitive":"int"`)
	assert.NotContains(t, s, `"Preloads"`)
}
