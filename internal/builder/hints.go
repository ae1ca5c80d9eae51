package builder

import (
	"strings"

	"github.com/roach88/gistub/internal/ir"
)

// primitives maps GI type tags and the binding's own builtin names to
// primitive kinds.
var primitives = map[string]ir.PrimitiveKind{
	"none": ir.PrimNone, "void": ir.PrimNone, "None": ir.PrimNone,

	"gboolean": ir.PrimBool, "bool": ir.PrimBool,

	"gint8": ir.PrimInt, "guint8": ir.PrimInt, "gint16": ir.PrimInt, "guint16": ir.PrimInt,
	"gint32": ir.PrimInt, "guint32": ir.PrimInt, "gint64": ir.PrimInt, "guint64": ir.PrimInt,
	"gint": ir.PrimInt, "guint": ir.PrimInt, "glong": ir.PrimInt, "gulong": ir.PrimInt,
	"gshort": ir.PrimInt, "gushort": ir.PrimInt, "gsize": ir.PrimInt, "gssize": ir.PrimInt,
	"goffset": ir.PrimInt, "gintptr": ir.PrimInt, "guintptr": ir.PrimInt, "int": ir.PrimInt,

	"gfloat": ir.PrimFloat, "gdouble": ir.PrimFloat, "float": ir.PrimFloat,

	"utf8": ir.PrimStr, "filename": ir.PrimStr, "gunichar": ir.PrimStr, "gchar": ir.PrimStr, "str": ir.PrimStr,

	"bytes": ir.PrimBytes,

	"GType": ir.PrimGType, "gtype": ir.PrimGType,

	"object": ir.PrimObject,

	"gpointer": ir.PrimAny, "gconstpointer": ir.PrimAny, "any": ir.PrimAny,
}

// bindingBases maps base classes private to the binding layer onto the
// public names the stubs can import.
var bindingBases = map[string]*ir.TypeRef{
	"gi.Boxed":       ir.Resolved("GObject", "GBoxed"),
	"gi.Struct":      ir.Resolved("GObject", "GPointer"),
	"gi.Fundamental": ir.Prim(ir.PrimObject),
}

// ClassifyHint turns a reflected type hint into a TypeRef. GI primitive
// tags become primitives and the container forms array<T>, glist<T>,
// gslist<T>, ghash<K,V> and tuple<...> become containers. Anything else is
// a name left raw for the resolver.
func ClassifyHint(hint string) *ir.TypeRef {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ir.Prim(ir.PrimNone)
	}
	if p, ok := primitives[hint]; ok {
		return ir.Prim(p)
	}

	name, args, ok := splitGeneric(hint)
	if !ok {
		return ir.Raw(hint)
	}
	switch name {
	case "array", "glist", "gslist":
		if len(args) != 1 {
			return ir.Raw(hint)
		}
		if name == "array" && (args[0] == "guint8" || args[0] == "gint8") {
			return ir.Prim(ir.PrimBytes)
		}
		return ir.List(ClassifyHint(args[0]))
	case "ghash":
		if len(args) != 2 {
			return ir.Raw(hint)
		}
		return ir.Dict(ClassifyHint(args[0]), ClassifyHint(args[1]))
	case "tuple":
		elems := make([]*ir.TypeRef, len(args))
		for i, a := range args {
			elems[i] = ClassifyHint(a)
		}
		return ir.Tuple(elems...)
	}
	return ir.Raw(hint)
}

// BaseRef classifies a base class hint, applying the binding base mapping.
func BaseRef(hint string) *ir.TypeRef {
	if ref, ok := bindingBases[hint]; ok {
		return ref.Clone()
	}
	return ClassifyHint(hint)
}

// splitGeneric splits "name<a, b<c>>" into its name and top-level
// arguments.
func splitGeneric(hint string) (string, []string, bool) {
	open := strings.IndexByte(hint, '<')
	if open <= 0 || !strings.HasSuffix(hint, ">") {
		return "", nil, false
	}
	name, body := hint[:open], hint[open+1:len(hint)-1]

	var args []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", nil, false
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, false
	}
	if last := strings.TrimSpace(body[start:]); last != "" || len(args) > 0 {
		args = append(args, last)
	}
	for _, a := range args {
		if a == "" {
			return "", nil, false
		}
	}
	return name, args, true
}
