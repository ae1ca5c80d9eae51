package emitter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/gistub/internal/ir"
)

// scope renders type expressions for one module and collects the imports
// and unresolved hints they need.
type scope struct {
	ns         string
	typing     bool
	extensions bool
	modules    map[string]bool
	unresolved map[string]bool
}

func newScope(ns string) *scope {
	return &scope{ns: ns, modules: make(map[string]bool), unresolved: make(map[string]bool)}
}

// name renders a qualified name, prefixed only when it lives in another
// namespace.
func (s *scope) name(q ir.QualifiedName) string {
	if q.Namespace == "" || q.Namespace == s.ns {
		return q.Name
	}
	s.modules[q.Namespace] = true
	return q.Namespace + "." + q.Name
}

func (s *scope) typingName(name string) string {
	s.typing = true
	return "typing." + name
}

func (s *scope) any() string { return s.typingName("Any") }

func (s *scope) typ(r *ir.TypeRef) string {
	if r == nil {
		return "None"
	}
	switch r.Tag {
	case ir.RefPrimitive:
		return s.primitive(r)
	case ir.RefResolved:
		if r.Target == nil {
			return s.any()
		}
		return s.name(*r.Target)
	case ir.RefContainer:
		return s.container(r)
	case ir.RefUnresolved, ir.RefRaw:
		if r.Hint != "" {
			s.unresolved[r.Hint] = true
		}
		return s.any()
	}
	return s.any()
}

// nullable renders r, adding "| None" unless r already admits None.
func (s *scope) nullable(r *ir.TypeRef, nullable bool) string {
	t := s.typ(r)
	if !nullable || t == "None" || t == "typing.Any" || t == "object" {
		return t
	}
	return t + " | None"
}

func (s *scope) primitive(r *ir.TypeRef) string {
	if r.Literal != "" {
		return s.typingName("Literal") + "[" + strconv.Quote(r.Literal) + "]"
	}
	switch r.Primitive {
	case ir.PrimNone:
		return "None"
	case ir.PrimBool:
		return "bool"
	case ir.PrimInt:
		return "int"
	case ir.PrimFloat:
		return "float"
	case ir.PrimStr:
		return "str"
	case ir.PrimBytes:
		return "bytes"
	case ir.PrimGType:
		return s.name(ir.Q("GObject", "GType"))
	case ir.PrimObject:
		return "object"
	case ir.PrimSelf:
		s.extensions = true
		return "typing_extensions.Self"
	}
	return s.any()
}

func (s *scope) container(r *ir.TypeRef) string {
	elems := make([]string, len(r.Elems))
	for i, e := range r.Elems {
		elems[i] = s.typ(e)
	}
	switch r.Container {
	case ir.ContainerList:
		return "list[" + strings.Join(elems, ", ") + "]"
	case ir.ContainerDict:
		return "dict[" + strings.Join(elems, ", ") + "]"
	case ir.ContainerTuple:
		if len(elems) == 0 {
			return "tuple[()]"
		}
		return "tuple[" + strings.Join(elems, ", ") + "]"
	case ir.ContainerCallable:
		args := "[" + strings.Join(elems, ", ") + "]"
		if r.AnyArgs {
			args = "..."
		}
		return s.typingName("Callable") + "[" + args + ", " + s.typ(resultOrNone(r.Result)) + "]"
	}
	return s.any()
}

func resultOrNone(r *ir.TypeRef) *ir.TypeRef {
	if r == nil {
		return ir.Prim(ir.PrimNone)
	}
	return r
}

// imports returns the import lines in a fixed order: plain imports first,
// then gi.repository modules sorted by name.
func (s *scope) imports() []string {
	var out []string
	if s.typing {
		out = append(out, "import typing")
	}
	if s.extensions {
		out = append(out, "import typing_extensions")
	}
	mods := make([]string, 0, len(s.modules))
	for m := range s.modules {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	for _, m := range mods {
		out = append(out, "from gi.repository import "+m)
	}
	return out
}

func (s *scope) unresolvedHints() []string {
	out := make([]string, 0, len(s.unresolved))
	for h := range s.unresolved {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
