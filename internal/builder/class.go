package builder

import (
	"fmt"
	"strings"

	"github.com/roach88/gistub/internal/docs"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/reflector"
)

const initDoc = "Generated __init__ stub method. order not guaranteed."

func (b *builder) class(e *reflector.RawEntity) *ir.Class {
	c := &ir.Class{Interface: e.Kind == ir.KindInterface, Bases: []*ir.TypeRef{}}
	c.Name = b.q(e.Name)

	for _, base := range e.Bases {
		c.Bases = append(c.Bases, BaseRef(base))
	}
	for _, iface := range e.Interfaces {
		c.Bases = append(c.Bases, ClassifyHint(iface))
	}

	// Members of a faulted class were never probed, so their
	// annotations are empty and their docs are skipped with the owner.
	faulted := b.report.Entity(e.Name).Fault != ""
	seen := make(map[string]bool)
	member := func(name string) bool {
		if seen[name] {
			b.ns.Diagnose(ir.Warn(ir.DiagDuplicateMember, b.raw.Namespace, e.Name+"."+name,
				"member declared twice, keeping the first"))
			return false
		}
		seen[name] = true
		return true
	}

	for _, f := range e.Fields {
		ann := b.report.Field(e.Name, f.Name)
		if f.Hidden || ann.Hidden() || !member(f.Name) {
			continue
		}
		field := &ir.Field{
			Name:     f.Name,
			Type:     ClassifyHint(f.Type),
			Readable: f.Readable,
			Writable: f.Writable,
			Nullable: f.Nullable,
		}
		field.BindingAdded = ann.Added()
		field.Deprecation = ann.Deprecation
		if !faulted {
			field.Doc = b.memberDoc(docs.KindField, e.Name+"."+f.Name, f.Doc)
		}
		c.Fields = append(c.Fields, field)
	}

	for _, p := range e.Properties {
		ann := b.report.Property(e.Name, p.Name)
		name := propertyName(p.Name)
		if p.Hidden || ann.Hidden() || !member(name) {
			continue
		}
		prop := &ir.Property{
			Name:     name,
			Type:     ClassifyHint(p.Type),
			Readable: p.Readable,
			Writable: p.Writable,
			Nullable: p.Nullable,
		}
		prop.BindingAdded = ann.Added()
		prop.Deprecation = ann.Deprecation
		if !faulted {
			prop.Doc = b.memberDoc(docs.KindProperty, e.Name+":"+p.Name, p.Doc)
		}
		c.Properties = append(c.Properties, prop)
	}

	for _, m := range e.Methods {
		ann := b.report.Method(e.Name, m.Name)
		if m.Hidden || ann.Hidden() || !member(m.Name) {
			continue
		}
		kind := m.Kind
		if kind != ir.KindFunction {
			kind = ir.KindMethod
		}
		call := b.callable(m, e.Name+"."+m.Name, kind)
		if faulted {
			call.BindingAdded = ann.Added()
		} else {
			entry := b.decorate(&call.Common, m.Doc, docs.KindMethod, e.Name+"."+m.Name, ann)
			for _, s := range call.Signatures {
				decorateSignature(s, entry)
			}
		}
		c.Methods = append(c.Methods, call)
	}

	for _, s := range e.Signals {
		ann := b.report.Signal(e.Name, s.Name)
		if s.Hidden || ann.Hidden() {
			continue
		}
		sig := b.signal(e.Name, s, faulted)
		sig.BindingAdded = ann.Added()
		c.Signals = append(c.Signals, sig)
	}
	for _, p := range c.Properties {
		c.Signals = append(c.Signals, b.notify(e.Name, e.Properties, p))
	}

	if !c.Interface && c.Method("__init__") == nil {
		c.Methods = append([]*ir.Callable{b.generatedInit(c)}, c.Methods...)
	}
	if len(c.Signals) > 0 && c.Method("connect") == nil {
		c.Connect = b.connect(c)
	}
	return c
}

func (b *builder) memberDoc(kind docs.DocKind, key, fallback string) string {
	if text := b.docs.Text(kind, key); text != "" {
		return text
	}
	return strings.TrimSpace(fallback)
}

func (b *builder) signal(owner string, s *reflector.RawSignal, faulted bool) *ir.Signal {
	sig := &ir.Signal{Signal: s.Name, Params: []*ir.Param{}, Detailed: s.Detailed}
	sig.Name = b.q(owner + "::" + s.Name)
	if s.Deprecated {
		sig.Deprecation = &ir.Deprecation{Message: "deprecated", Source: "lowlevel"}
	}
	for _, p := range s.Params {
		sig.Params = append(sig.Params, &ir.Param{
			Name:      p.Name,
			Type:      ClassifyHint(p.Type),
			Direction: ir.DirIn,
			Nullable:  p.Nullable,
		})
	}
	if ret := ClassifyHint(s.Return); ret.Primitive != ir.PrimNone || ret.Tag != ir.RefPrimitive {
		sig.Return = ret
	}
	if !faulted {
		entry, _ := b.docs.Lookup(docs.KindSignal, owner+"::"+s.Name)
		sig.Doc = entry.Text
		for _, p := range sig.Params {
			p.Doc = entry.Params[p.Name]
		}
	}
	return sig
}

// notify builds the notify::<property> signal every property has. The
// detail uses the GObject spelling of the property name.
func (b *builder) notify(owner string, raw []*reflector.RawProperty, p *ir.Property) *ir.Signal {
	detail := p.Name
	for _, rp := range raw {
		if propertyName(rp.Name) == p.Name {
			detail = rp.Name
			break
		}
	}
	sig := &ir.Signal{
		Signal: "notify::" + detail,
		Params: []*ir.Param{
			{Name: "pspec", Type: ir.Resolved("GObject", "ParamSpec"), Direction: ir.DirIn},
			{Name: "value", Type: ir.Prim(ir.PrimAny), Direction: ir.DirIn},
		},
	}
	sig.Name = b.q(owner + "::notify::" + detail)
	sig.Doc = fmt.Sprintf("Signal emitted when the '%s' property changes.", detail)
	return sig
}

// connect builds the overload set of the connect method: one overload per
// signal with a literal name and typed handler, then the untyped default.
func (b *builder) connect(c *ir.Class) *ir.Callable {
	call := &ir.Callable{CallableKind: ir.KindMethod, Role: ir.RoleMethod, OverloadCandidate: true}
	call.Name = b.q(c.Name.Name + ".connect")

	rest := &ir.Param{Name: "args", Type: ir.Prim(ir.PrimAny), Direction: ir.DirIn, Star: "*"}
	for _, s := range c.Signals {
		ret := s.Return
		if ret == nil {
			ret = ir.Prim(ir.PrimNone)
		}
		var handler *ir.TypeRef
		if len(s.Params) == 0 {
			handler = ir.Func(ret.Clone(), true)
		} else {
			args := []*ir.TypeRef{ir.Prim(ir.PrimSelf)}
			for _, p := range s.Params {
				args = append(args, p.Type.Clone())
			}
			handler = ir.Func(ret.Clone(), false, args...)
		}
		call.Signatures = append(call.Signatures, &ir.Signature{
			Params: []*ir.Param{
				{Name: "detailed_signal", Type: ir.Literal(s.Signal), Direction: ir.DirIn},
				{Name: "handler", Type: handler, Direction: ir.DirIn},
				cloneParam(rest),
			},
			Return: ir.Prim(ir.PrimInt),
		})
	}
	call.Signatures = append(call.Signatures, &ir.Signature{
		Params: []*ir.Param{
			{Name: "detailed_signal", Type: ir.Prim(ir.PrimStr), Direction: ir.DirIn},
			{Name: "handler", Type: ir.Func(ir.Prim(ir.PrimAny), true), Direction: ir.DirIn},
			cloneParam(rest),
		},
		Return: ir.Prim(ir.PrimInt),
	})
	return call
}

// generatedInit takes every writable property as an optional argument.
func (b *builder) generatedInit(c *ir.Class) *ir.Callable {
	call := &ir.Callable{CallableKind: ir.KindMethod, Role: ir.RoleMethod}
	call.Name = b.q(c.Name.Name + ".__init__")
	call.Doc = initDoc

	s := &ir.Signature{Params: []*ir.Param{}}
	for _, p := range c.Properties {
		if !p.Writable {
			continue
		}
		s.Params = append(s.Params, &ir.Param{
			Name:      p.Name,
			Type:      p.Type.Clone(),
			Direction: ir.DirIn,
			Nullable:  p.Nullable,
			Optional:  true,
			Default:   "...",
		})
	}
	call.Signatures = []*ir.Signature{s}
	return call
}

func cloneParam(p *ir.Param) *ir.Param {
	c := *p
	c.Type = p.Type.Clone()
	return &c
}

// propertyName is the attribute spelling of a GObject property name.
func propertyName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
