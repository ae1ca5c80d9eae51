package ir

import (
	"strings"
)

// RefTag is the state of a TypeRef.
type RefTag string

const (
	// RefRaw holds a textual hint that still needs a resolver pass.
	RefRaw RefTag = "raw"
	// RefResolved points at an entity in the symbol table.
	RefResolved RefTag = "resolved"
	// RefPrimitive is a builtin value type.
	RefPrimitive RefTag = "primitive"
	// RefContainer wraps element references.
	RefContainer RefTag = "container"
	// RefUnresolved is the terminal "cannot determine" state.
	RefUnresolved RefTag = "unresolved"
)

// PrimitiveKind enumerates builtin value types.
type PrimitiveKind string

const (
	PrimNone   PrimitiveKind = "none"
	PrimBool   PrimitiveKind = "bool"
	PrimInt    PrimitiveKind = "int"
	PrimFloat  PrimitiveKind = "float"
	PrimStr    PrimitiveKind = "str"
	PrimBytes  PrimitiveKind = "bytes"
	PrimGType  PrimitiveKind = "gtype"
	PrimObject PrimitiveKind = "object" // python builtin object
	PrimAny    PrimitiveKind = "any"    // intentional typing.Any
	PrimSelf   PrimitiveKind = "self"   // typing_extensions.Self
)

// ContainerKind enumerates element-carrying types.
type ContainerKind string

const (
	ContainerList     ContainerKind = "list"
	ContainerDict     ContainerKind = "dict"
	ContainerTuple    ContainerKind = "tuple"
	ContainerCallable ContainerKind = "callable" // Elems are args, Result is the return
)

// TypeRef is a tagged reference to a type.
//
// Only the resolver mutates a TypeRef, and only from RefRaw to RefResolved or
// RefUnresolved. Hint is retained after resolution for diagnostics.
type TypeRef struct {
	Tag       RefTag         `json:"tag"`
	Hint      string         `json:"hint,omitempty"`
	Target    *QualifiedName `json:"target,omitempty"`
	Primitive PrimitiveKind  `json:"primitive,omitempty"`
	Literal   string         `json:"literal,omitempty"` // string literal type on a str primitive
	Container ContainerKind  `json:"container,omitempty"`
	Elems     []*TypeRef     `json:"elems,omitempty"`
	Result    *TypeRef       `json:"result,omitempty"`   // callable return
	AnyArgs   bool           `json:"any_args,omitempty"` // callable accepting "..."
}

// Raw creates an unresolved textual hint.
func Raw(hint string) *TypeRef {
	return &TypeRef{Tag: RefRaw, Hint: hint}
}

// Resolved creates a reference to a known entity.
func Resolved(namespace, name string) *TypeRef {
	q := Q(namespace, name)
	return &TypeRef{Tag: RefResolved, Target: &q, Hint: q.String()}
}

// Prim creates a primitive reference.
func Prim(kind PrimitiveKind) *TypeRef {
	return &TypeRef{Tag: RefPrimitive, Primitive: kind}
}

// Literal creates a string literal type.
func Literal(value string) *TypeRef {
	return &TypeRef{Tag: RefPrimitive, Primitive: PrimStr, Literal: value}
}

// List creates a list container.
func List(elem *TypeRef) *TypeRef {
	return &TypeRef{Tag: RefContainer, Container: ContainerList, Elems: []*TypeRef{elem}}
}

// Dict creates a dict container.
func Dict(key, value *TypeRef) *TypeRef {
	return &TypeRef{Tag: RefContainer, Container: ContainerDict, Elems: []*TypeRef{key, value}}
}

// Tuple creates a tuple container.
func Tuple(elems ...*TypeRef) *TypeRef {
	return &TypeRef{Tag: RefContainer, Container: ContainerTuple, Elems: elems}
}

// Func creates a callable type. A nil args slice with anyArgs renders "...".
func Func(result *TypeRef, anyArgs bool, args ...*TypeRef) *TypeRef {
	return &TypeRef{Tag: RefContainer, Container: ContainerCallable, Elems: args, Result: result, AnyArgs: anyArgs}
}

// Unresolved creates a terminal unresolved reference.
func Unresolved(hint string) *TypeRef {
	return &TypeRef{Tag: RefUnresolved, Hint: hint}
}

// IsRaw reports whether r still needs resolution.
func (r *TypeRef) IsRaw() bool { return r != nil && r.Tag == RefRaw }

// Resolve fills a raw reference with its target.
func (r *TypeRef) Resolve(target QualifiedName) {
	t := target
	r.Tag = RefResolved
	r.Target = &t
}

// MarkUnresolved moves a raw reference to the terminal unresolved state.
func (r *TypeRef) MarkUnresolved() {
	r.Tag = RefUnresolved
	r.Target = nil
}

// Clone returns a deep copy of r.
func (r *TypeRef) Clone() *TypeRef {
	if r == nil {
		return nil
	}
	c := *r
	if r.Target != nil {
		t := *r.Target
		c.Target = &t
	}
	if r.Elems != nil {
		c.Elems = make([]*TypeRef, len(r.Elems))
		for i, e := range r.Elems {
			c.Elems[i] = e.Clone()
		}
	}
	c.Result = r.Result.Clone()
	return &c
}

// Walk visits r and every nested reference, depth first.
func (r *TypeRef) Walk(fn func(*TypeRef)) {
	if r == nil {
		return
	}
	fn(r)
	for _, e := range r.Elems {
		e.Walk(fn)
	}
	r.Result.Walk(fn)
}

// String renders a debug form, e.g. "list[raw:Gtk.Widget]".
func (r *TypeRef) String() string {
	if r == nil {
		return "none"
	}
	switch r.Tag {
	case RefRaw:
		return "raw:" + r.Hint
	case RefResolved:
		return r.Target.String()
	case RefPrimitive:
		if r.Literal != "" {
			return "literal:" + r.Literal
		}
		return string(r.Primitive)
	case RefUnresolved:
		return "unresolved:" + r.Hint
	case RefContainer:
		parts := make([]string, 0, len(r.Elems)+1)
		for _, e := range r.Elems {
			parts = append(parts, e.String())
		}
		if r.AnyArgs {
			parts = append(parts, "...")
		}
		s := string(r.Container) + "[" + strings.Join(parts, ", ") + "]"
		if r.Result != nil {
			s += " -> " + r.Result.String()
		}
		return s
	}
	return string(r.Tag)
}
