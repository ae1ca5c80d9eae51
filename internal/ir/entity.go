package ir

// Entity is the sealed sum type of every nameable namespace member.
//
// Concrete nodes: *Class, *Callable, *Constant, *Enum, *Signal, *Alias.
type Entity interface {
	Kind() EntityKind
	Ident() QualifiedName
	Meta() *Common
	sealed()
}

// Common carries the fields every entity has.
type Common struct {
	Name         QualifiedName `json:"name"`
	Doc          string        `json:"doc,omitempty"`
	Deprecation  *Deprecation  `json:"deprecation,omitempty"`
	BindingAdded bool          `json:"binding_added,omitempty"`
}

// Ident returns the qualified identifier.
func (c *Common) Ident() QualifiedName { return c.Name }

// Meta returns the shared fields.
func (c *Common) Meta() *Common { return c }

// Class is a class or interface declaration.
type Class struct {
	Common
	Interface  bool        `json:"interface,omitempty"`
	Bases      []*TypeRef  `json:"bases"`
	Methods    []*Callable `json:"methods,omitempty"`
	Properties []*Property `json:"properties,omitempty"`
	Fields     []*Field    `json:"fields,omitempty"`
	Signals    []*Signal   `json:"signals,omitempty"`

	// Connect is the signal-connect overload set, nil when the class has no
	// signals or defines its own connect.
	Connect *Callable `json:"connect,omitempty"`

	// Aliases lists the names folded onto this canonical class.
	Aliases []QualifiedName `json:"aliases,omitempty"`
}

func (c *Class) Kind() EntityKind {
	if c.Interface {
		return KindInterface
	}
	return KindClass
}

func (*Class) sealed() {}

// Method returns the member callable with the given local name.
func (c *Class) Method(name string) *Callable {
	for _, m := range c.Methods {
		if m.Local() == name {
			return m
		}
	}
	return nil
}

// Callable is a function, method or callback type.
type Callable struct {
	Common
	CallableKind EntityKind `json:"kind"` // KindFunction | KindMethod | KindCallback
	Role         Role       `json:"role"`
	Throws       bool       `json:"throws,omitempty"`

	// Signatures holds every call shape. Single-signature callables have
	// exactly one entry; OverloadCandidate marks the rest.
	Signatures        []*Signature `json:"signatures"`
	OverloadCandidate bool         `json:"overload_candidate,omitempty"`
}

func (c *Callable) Kind() EntityKind { return c.CallableKind }

func (*Callable) sealed() {}

// Primary returns the first signature.
func (c *Callable) Primary() *Signature {
	if len(c.Signatures) == 0 {
		return &Signature{}
	}
	return c.Signatures[0]
}

// Local returns the member name without its owner prefix.
func (c *Callable) Local() string {
	return localPart(c.Name.Name)
}

// Constant is a typed module-level value.
type Constant struct {
	Common
	Type  *TypeRef `json:"type"`
	Value string   `json:"value"` // python repr
}

func (*Constant) Kind() EntityKind { return KindConstant }

func (*Constant) sealed() {}

// Enum is an enum or flags declaration.
type Enum struct {
	Common
	Flags   bool          `json:"flags,omitempty"`
	Members []*EnumMember `json:"members"`
}

func (e *Enum) Kind() EntityKind {
	if e.Flags {
		return KindFlags
	}
	return KindEnum
}

func (*Enum) sealed() {}

// Signal is a class signal. Name is "Owner::signal".
type Signal struct {
	Common
	Signal   string   `json:"signal"` // e.g. "clicked", "notify::label"
	Params   []*Param `json:"params"` // handler args after the instance
	Return   *TypeRef `json:"return,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
}

func (*Signal) Kind() EntityKind { return KindSignal }

func (*Signal) sealed() {}

// Alias renders as a direct alias of another entity.
// Folded aliases come from duplicate identity detection.
type Alias struct {
	Common
	Target *TypeRef `json:"target"`
	Folded bool     `json:"folded,omitempty"`
}

func (*Alias) Kind() EntityKind { return KindAlias }

func (*Alias) sealed() {}

func localPart(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// WalkRefs visits every TypeRef reachable from e, depth first, in
// declaration order. path locates the reference for diagnostics.
func WalkRefs(e Entity, fn func(path string, ref *TypeRef)) {
	visit := func(path string, r *TypeRef) {
		r.Walk(func(inner *TypeRef) { fn(path, inner) })
	}
	walkSignature := func(owner string, s *Signature) {
		for _, p := range s.Params {
			visit(owner+"("+p.Name+")", p.Type)
		}
		visit(owner+"()", s.Return)
	}

	switch n := e.(type) {
	case *Class:
		name := n.Name.Name
		for _, b := range n.Bases {
			visit(name+"<base>", b)
		}
		for _, f := range n.Fields {
			visit(name+"."+f.Name, f.Type)
		}
		for _, p := range n.Properties {
			visit(name+":"+p.Name, p.Type)
		}
		for _, m := range n.Methods {
			for _, s := range m.Signatures {
				walkSignature(m.Name.Name, s)
			}
		}
		for _, sig := range n.Signals {
			for _, p := range sig.Params {
				visit(sig.Name.Name+"("+p.Name+")", p.Type)
			}
			visit(sig.Name.Name+"()", sig.Return)
		}
		if n.Connect != nil {
			for _, s := range n.Connect.Signatures {
				walkSignature(n.Connect.Name.Name, s)
			}
		}
	case *Callable:
		for _, s := range n.Signatures {
			walkSignature(n.Name.Name, s)
		}
	case *Constant:
		visit(n.Name.Name, n.Type)
	case *Signal:
		for _, p := range n.Params {
			visit(n.Name.Name+"("+p.Name+")", p.Type)
		}
		visit(n.Name.Name+"()", n.Return)
	case *Alias:
		visit(n.Name.Name, n.Target)
	case *Enum:
	}
}
