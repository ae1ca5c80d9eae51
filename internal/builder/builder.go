// Package builder merges reflector output, GIR documentation and quirk
// annotations into the IR of one namespace.
//
// Every visible raw entity yields exactly one IR entity. Documentation and
// annotations only decorate entities, they never add any.
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/docs"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
	"github.com/roach88/gistub/internal/quirks"
	"github.com/roach88/gistub/internal/reflector"
)

// Options tune a build.
type Options struct {
	Log *zap.SugaredLogger
}

type builder struct {
	ns     *ir.Namespace
	raw    *reflector.Raw
	docs   *docs.Index
	report *quirks.Report
	log    *zap.SugaredLogger
}

// Build produces the namespace IR. index and report may be nil. The only
// error is a *BuildError.
func Build(raw *reflector.Raw, index *docs.Index, report *quirks.Report, opts Options) (*ir.Namespace, error) {
	if raw == nil || raw.Namespace == "" {
		return nil, &BuildError{Code: ErrCodeInvalidRaw, Message: "no reflector output"}
	}
	b := &builder{
		ns:     ir.NewNamespace(raw.Namespace, raw.Version, append([]string(nil), raw.Preloads...)),
		raw:    raw,
		docs:   index,
		report: report,
		log:    logging.OrNop(opts.Log),
	}
	for _, d := range raw.Diagnostics {
		b.ns.Diagnose(d)
	}
	if report != nil {
		for _, d := range report.Diagnostics {
			b.ns.Diagnose(d)
		}
	}

	var folded []*ir.Alias
	for _, e := range raw.Entities {
		ann := report.Entity(e.Name)
		if ann.Hidden() {
			b.log.Debugw("skipping binding-hidden entity", logging.FieldNamespace, raw.Namespace, logging.FieldEntity, e.Name)
			continue
		}

		var ent ir.Entity
		if canonical, ok := report.CanonicalOf(e.Name); ok {
			a := &ir.Alias{Target: ir.Resolved(raw.Namespace, canonical), Folded: true}
			a.Name = ir.Q(raw.Namespace, e.Name)
			folded = append(folded, a)
			ent = a
		} else {
			ent = b.entity(e)
		}
		if ent == nil {
			continue
		}
		entry := b.decorate(ent.Meta(), e.Doc, docKind(e.Kind), e.Name, ann)
		if c, ok := ent.(*ir.Callable); ok {
			for _, s := range c.Signatures {
				decorateSignature(s, entry)
			}
		}

		if !b.ns.Add(ent) {
			return nil, &BuildError{
				Code:      ErrCodeDuplicateIdentifier,
				Namespace: raw.Namespace,
				Entity:    e.Name,
				Message:   fmt.Sprintf("qualified identifier %s is declared twice", ent.Ident()),
			}
		}
	}

	for _, a := range folded {
		target, ok := b.ns.Lookup(a.Target.Target.Name)
		if !ok {
			// The canonical kind produced no IR node; the alias stands on its own.
			continue
		}
		if c, ok := target.(*ir.Class); ok {
			c.Aliases = append(c.Aliases, a.Name)
		}
	}

	b.log.Debugw("built namespace", logging.FieldNamespace, raw.Namespace, logging.FieldCount, len(b.ns.Entities))
	return b.ns, nil
}

func (b *builder) entity(e *reflector.RawEntity) ir.Entity {
	switch e.Kind {
	case ir.KindClass, ir.KindInterface:
		return b.class(e)
	case ir.KindFunction, ir.KindCallback:
		return b.callable(e, e.Name, e.Kind)
	case ir.KindConstant:
		c := &ir.Constant{Type: ClassifyHint(e.ConstType), Value: pyValue(e.ConstType, e.ConstValue)}
		c.Name = b.q(e.Name)
		return c
	case ir.KindEnum, ir.KindFlags:
		return b.enum(e)
	case ir.KindAlias:
		a := &ir.Alias{Target: ClassifyHint(e.Target)}
		a.Name = b.q(e.Name)
		return a
	}
	b.log.Warnw("unexpected raw kind", logging.FieldNamespace, b.raw.Namespace, logging.FieldEntity, e.Name, "kind", e.Kind)
	return nil
}

func (b *builder) q(name string) ir.QualifiedName { return ir.Q(b.raw.Namespace, name) }

// callable builds a function, method or callback; name is the qualified
// local name ("Owner.method" for members).
func (b *builder) callable(e *reflector.RawEntity, name string, kind ir.EntityKind) *ir.Callable {
	c := &ir.Callable{CallableKind: kind, Role: e.Role, Throws: e.Throws}
	c.Name = b.q(name)
	switch {
	case name == e.Name:
		c.Role = ir.RoleFunction
	case c.Role == "":
		c.Role = ir.RoleMethod
	}

	for _, rs := range e.Signatures {
		c.Signatures = append(c.Signatures, signature(rs))
	}
	if len(c.Signatures) == 0 {
		c.Signatures = []*ir.Signature{{}}
	}
	c.OverloadCandidate = len(c.Signatures) > 1
	return c
}

// signature converts one raw call shape. Array length arguments are filled
// by the binding and never appear.
func signature(rs reflector.RawSignature) *ir.Signature {
	s := &ir.Signature{Params: []*ir.Param{}}
	for _, p := range rs.Params {
		if p.ArrayLength {
			continue
		}
		dir := ir.Direction(p.Direction)
		if dir == "" {
			dir = ir.DirIn
		}
		s.Params = append(s.Params, &ir.Param{
			Name:      p.Name,
			Type:      ClassifyHint(p.Type),
			Direction: dir,
			Nullable:  p.Nullable,
			Optional:  p.Optional,
			Default:   p.Default,
			Star:      p.Star,
		})
	}
	if r := rs.Return; r != nil && !r.Skip {
		ref := ClassifyHint(r.Type)
		if ref.Tag != ir.RefPrimitive || ref.Primitive != ir.PrimNone {
			s.Return = ref
			s.ReturnNullable = r.Nullable
		}
	}
	return s
}

func (b *builder) enum(e *reflector.RawEntity) *ir.Enum {
	en := &ir.Enum{Flags: e.Kind == ir.KindFlags, Members: []*ir.EnumMember{}}
	en.Name = b.q(e.Name)
	faulted := b.report.Entity(e.Name).Fault != ""
	for _, v := range e.Values {
		m := &ir.EnumMember{Name: strings.ToUpper(v.Name), Value: v.Value}
		if v.Deprecated {
			m.Deprecation = &ir.Deprecation{Message: "deprecated", Source: "lowlevel"}
		}
		if !faulted {
			entry, _ := b.docs.Lookup(docs.KindMember, e.Name+"."+v.Name)
			m.Doc = entry.Text
		}
		en.Members = append(en.Members, m)
	}
	return en
}

// decorate attaches documentation and deprecation to an entity or member
// and returns the docs entry used. A faulted item keeps its raw metadata
// only.
func (b *builder) decorate(c *ir.Common, fallbackDoc string, kind docs.DocKind, key string, ann quirks.Annotation) docs.Entry {
	c.BindingAdded = ann.Added()
	if ann.Fault != "" {
		return docs.Entry{}
	}

	entry, _ := b.docs.Lookup(kind, key)
	c.Doc = entry.Text
	if c.Doc == "" {
		c.Doc = strings.TrimSpace(fallbackDoc)
	}

	switch {
	case ann.Deprecation != nil:
		d := *ann.Deprecation
		if d.Replacement == "" && entry.Deprecated != "" {
			d.Replacement = quirks.Replacement(entry.Deprecated)
		}
		c.Deprecation = &d
	case entry.Deprecated != "":
		c.Deprecation = &ir.Deprecation{
			Message:     entry.Deprecated,
			Replacement: quirks.Replacement(entry.Deprecated),
			Source:      "docs",
		}
	}
	return entry
}

// decorateSignature copies parameter and return docs onto a signature.
func decorateSignature(s *ir.Signature, entry docs.Entry) {
	for _, p := range s.Params {
		if d, ok := entry.Params[p.Name]; ok {
			p.Doc = d
		}
	}
	if s.Return != nil {
		s.ReturnDoc = entry.Return
	}
}

func docKind(k ir.EntityKind) docs.DocKind {
	switch k {
	case ir.KindClass, ir.KindInterface:
		return docs.KindClass
	case ir.KindFunction:
		return docs.KindFunction
	case ir.KindCallback:
		return docs.KindCallback
	case ir.KindConstant:
		return docs.KindConstant
	case ir.KindEnum, ir.KindFlags:
		return docs.KindEnum
	case ir.KindAlias:
		return docs.KindAlias
	}
	return docs.KindMethod
}

// pyValue renders a reflected constant value as a Python literal.
func pyValue(typ, value string) string {
	switch ClassifyHint(typ).Primitive {
	case ir.PrimStr:
		return strconv.Quote(value)
	case ir.PrimBool:
		switch strings.ToLower(value) {
		case "true", "1":
			return "True"
		case "false", "0":
			return "False"
		}
	}
	if value == "" {
		return "..."
	}
	return value
}
