package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/gistub/internal/ir"
)

const indent = "    "

// renderer turns the entities of one namespace into declaration blocks.
type renderer struct {
	ns *ir.Namespace
	s  *scope
}

func (r *renderer) entity(e ir.Entity) []string {
	switch n := e.(type) {
	case *ir.Class:
		return r.class(n)
	case *ir.Callable:
		if n.CallableKind == ir.KindCallback {
			return r.callback(n)
		}
		return r.callable("", n)
	case *ir.Constant:
		return r.constant(n)
	case *ir.Enum:
		return r.enum(n)
	case *ir.Alias:
		return r.alias(n)
	case *ir.Signal:
		return nil
	}
	return nil
}

func (r *renderer) deprecated(in string, d *ir.Deprecation) []string {
	if d == nil {
		return nil
	}
	r.s.extensions = true
	return []string{in + "@typing_extensions.deprecated(" + strconv.Quote(deprecationText(d)) + ")"}
}

func deprecationText(d *ir.Deprecation) string {
	msg := strings.TrimSpace(d.Message)
	if d.Replacement != "" && !strings.Contains(msg, d.Replacement) {
		msg = strings.TrimSuffix(msg, ".") + ". Use " + d.Replacement + " instead."
	}
	return msg
}

// attributeDoc is the docstring of something that cannot be decorated.
func attributeDoc(doc string, d *ir.Deprecation, added bool) string {
	var parts []string
	if d != nil {
		parts = append(parts, "[DEPRECATED] "+deprecationText(d))
	}
	if doc != "" {
		parts = append(parts, doc)
	}
	if added {
		parts = append(parts, bindingAddedNote)
	}
	return strings.Join(parts, "\n\n")
}

const bindingAddedNote = "[BINDING-ADDED] provided by the Python binding, not the C API."

func (r *renderer) class(c *ir.Class) []string {
	var out []string
	out = append(out, r.deprecated("", c.Deprecation)...)

	bases := make([]string, 0, len(c.Bases))
	for _, b := range c.Bases {
		bases = append(bases, r.s.typ(b))
	}
	if c.Interface && len(bases) == 0 {
		bases = append(bases, r.s.name(ir.Q("GObject", "GInterface")))
	}
	name, _ := sanitize(c.Name.Name)
	if len(bases) == 0 {
		out = append(out, "class "+name+":")
	} else {
		out = append(out, "class "+name+"("+strings.Join(bases, ", ")+"):")
	}

	header := len(out)
	out = append(out, docLines(indent, attributeDoc(c.Doc, nil, c.BindingAdded))...)

	for _, f := range c.Fields {
		out = append(out, r.attribute(f.Name, f.Type, f.Nullable, !f.Writable, attributeDoc(f.Doc, f.Deprecation, f.BindingAdded))...)
	}
	if len(c.Properties) > 0 {
		out = append(out, indent+"class Props:")
		for _, p := range c.Properties {
			pname, renamed := sanitize(p.Name)
			line := indent + indent + pname + ": " + r.s.nullable(p.Type, p.Nullable)
			if renamed {
				line += renames{p.Name + " -> " + pname}.comment()
			}
			out = append(out, line)
			out = append(out, docLines(indent+indent, attributeDoc(p.Doc, p.Deprecation, p.BindingAdded))...)
		}
		out = append(out, indent+"props: Props = ...")
	}
	for _, m := range c.Methods {
		out = append(out, r.callable(indent, m)...)
	}
	if c.Connect != nil {
		out = append(out, r.callable(indent, c.Connect)...)
	}

	if len(out) == header {
		out = append(out, indent+"...")
	}
	return out
}

// attribute renders a field; read-only fields become properties.
func (r *renderer) attribute(name string, t *ir.TypeRef, nullable, readOnly bool, doc string) []string {
	n, renamed := sanitize(name)
	comment := ""
	if renamed {
		comment = renames{name + " -> " + n}.comment()
	}
	typ := r.s.nullable(t, nullable)
	if readOnly {
		lines := []string{indent + "@property", indent + "def " + n + "(self) -> " + typ + ":" + comment}
		if d := docLines(indent+indent, doc); d != nil {
			return append(lines, d...)
		}
		lines[1] = indent + "def " + n + "(self) -> " + typ + ": ..." + comment
		return lines
	}
	return append([]string{indent + n + ": " + typ + comment}, docLines(indent, doc)...)
}

// callable renders a function or method at in; overloaded callables get
// one decorated stub per signature, most specific first.
func (r *renderer) callable(in string, c *ir.Callable) []string {
	sigs := c.Signatures
	if len(sigs) == 0 {
		sigs = []*ir.Signature{{}}
	}
	overloaded := len(sigs) > 1
	if overloaded {
		sigs = orderOverloads(sigs)
	}

	name, renamed := sanitize(c.Local())
	var out []string
	for i, s := range sigs {
		out = append(out, r.deprecated(in, c.Deprecation)...)
		if overloaded {
			out = append(out, in+"@"+r.s.typingName("overload"))
		}
		switch role(c, in != "") {
		case ir.RoleConstructor:
			out = append(out, in+"@classmethod")
		case ir.RoleStatic:
			out = append(out, in+"@staticmethod")
		case ir.RoleGetter:
			out = append(out, in+"@property")
		}

		var notes renames
		if renamed {
			notes.add(c.Local(), name)
		}
		params := r.params(c, s, in != "", &notes)
		def := in + "def " + name + "(" + params + ") -> " + r.returns(s) + ":"

		var doc []string
		if i == 0 {
			doc = docLines(in+indent, callableDoc(c, s))
		}
		if doc == nil {
			out = append(out, def+" ..."+notes.comment())
			continue
		}
		out = append(out, def+notes.comment())
		out = append(out, doc...)
	}
	return out
}

// role is the effective role: module-level callables never take self.
func role(c *ir.Callable, inClass bool) ir.Role {
	if !inClass {
		return ir.RoleFunction
	}
	if c.CallableKind == ir.KindFunction && c.Role != ir.RoleConstructor {
		return ir.RoleStatic
	}
	return c.Role
}

func (r *renderer) params(c *ir.Callable, s *ir.Signature, inClass bool, notes *renames) string {
	var parts []string
	switch role(c, inClass) {
	case ir.RoleMethod, ir.RoleGetter:
		parts = append(parts, "self")
	case ir.RoleConstructor:
		parts = append(parts, "cls")
	}

	in := s.Inputs()
	defaults := make([]string, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		p := in[i]
		if p.Star != "" {
			continue
		}
		d := p.Default
		if d == "" && acceptsNone(p) {
			d = "None"
		}
		if d == "" {
			break
		}
		defaults[i] = d
	}

	for i, p := range in {
		name, renamed := sanitize(p.Name)
		if renamed {
			notes.add(p.Name, name)
		}
		part := p.Star + name + ": " + r.s.nullable(p.Type, acceptsNone(p))
		if defaults[i] != "" {
			part += " = " + defaults[i]
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// acceptsNone reports whether an input argument may be passed as None.
// An optional argument is treated like a nullable one.
func acceptsNone(p *ir.Param) bool {
	return p.Nullable || p.Optional
}

// returns renders the return annotation: out arguments follow the return
// value, as a tuple when there is more than one.
func (r *renderer) returns(s *ir.Signature) string {
	var parts []string
	if s.Return != nil {
		parts = append(parts, r.s.nullable(s.Return, s.ReturnNullable))
	}
	for _, p := range s.Outputs() {
		parts = append(parts, r.s.nullable(p.Type, p.Nullable))
	}
	switch len(parts) {
	case 0:
		return "None"
	case 1:
		return parts[0]
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}

func callableDoc(c *ir.Callable, s *ir.Signature) string {
	var b strings.Builder
	b.WriteString(c.Doc)

	var args []string
	for _, p := range s.Inputs() {
		if p.Doc != "" {
			name, _ := sanitize(p.Name)
			args = append(args, indent+name+": "+p.Doc)
		}
	}
	if len(args) > 0 {
		b.WriteString("\n\nArgs:\n" + strings.Join(args, "\n"))
	}
	if s.ReturnDoc != "" {
		b.WriteString("\n\nReturns:\n" + indent + s.ReturnDoc)
	}
	if c.BindingAdded {
		b.WriteString("\n\n" + bindingAddedNote)
	}
	return strings.TrimSpace(b.String())
}

func (r *renderer) callback(c *ir.Callable) []string {
	s := c.Primary()
	args := make([]string, 0, len(s.Params))
	for _, p := range s.Inputs() {
		args = append(args, r.s.nullable(p.Type, p.Nullable))
	}
	name, _ := sanitize(c.Name.Name)
	line := fmt.Sprintf("%s = %s[[%s], %s]", name, r.s.typingName("Callable"), strings.Join(args, ", "), r.returns(s))
	return append([]string{line}, docLines("", attributeDoc(callableDoc(c, s), c.Deprecation, false))...)
}

func (r *renderer) constant(c *ir.Constant) []string {
	name, renamed := sanitize(c.Name.Name)
	line := name + ": " + r.s.typ(c.Type) + " = " + c.Value
	if renamed {
		line += renames{c.Name.Name + " -> " + name}.comment()
	}
	return append([]string{line}, docLines("", attributeDoc(c.Doc, c.Deprecation, c.BindingAdded))...)
}

func (r *renderer) enum(e *ir.Enum) []string {
	var out []string
	out = append(out, r.deprecated("", e.Deprecation)...)
	base := "GEnum"
	if e.Flags {
		base = "GFlags"
	}
	name, _ := sanitize(e.Name.Name)
	out = append(out, "class "+name+"("+r.s.name(ir.Q("GObject", base))+"):")

	header := len(out)
	out = append(out, docLines(indent, attributeDoc(e.Doc, nil, e.BindingAdded))...)
	for _, m := range e.Members {
		mname, renamed := sanitize(m.Name)
		line := indent + mname + " = " + strconv.FormatInt(m.Value, 10)
		if renamed {
			line += renames{m.Name + " -> " + mname}.comment()
		}
		out = append(out, line)
		out = append(out, docLines(indent, attributeDoc(m.Doc, m.Deprecation, false))...)
	}
	if len(out) == header {
		out = append(out, indent+"...")
	}
	return out
}

func (r *renderer) alias(a *ir.Alias) []string {
	name, _ := sanitize(a.Name.Name)
	line := name + " = " + r.s.typ(a.Target)
	return append([]string{line}, docLines("", attributeDoc(a.Doc, a.Deprecation, a.BindingAdded))...)
}
