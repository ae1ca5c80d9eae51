package ir

import (
	"strings"
)

// EntityKind tags the concrete node behind an Entity.
type EntityKind string

const (
	KindClass     EntityKind = "class"
	KindInterface EntityKind = "interface"
	KindFunction  EntityKind = "function"
	KindMethod    EntityKind = "method"
	KindConstant  EntityKind = "constant"
	KindEnum      EntityKind = "enum"
	KindFlags     EntityKind = "flags"
	KindSignal    EntityKind = "signal"
	KindCallback  EntityKind = "callback"
	KindAlias     EntityKind = "alias"
)

// AllKinds lists every entity kind in a fixed order.
var AllKinds = []EntityKind{
	KindClass, KindInterface, KindFunction, KindMethod, KindConstant,
	KindEnum, KindFlags, KindSignal, KindCallback, KindAlias,
}

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// QualifiedName identifies an entity across namespaces.
// Members use "Owner.member" as Name.
type QualifiedName struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Q builds a QualifiedName.
func Q(namespace, name string) QualifiedName {
	return QualifiedName{Namespace: namespace, Name: name}
}

// ParseQualified splits "Ns.Name" at the first dot. A hint without a dot
// has an empty namespace.
func ParseQualified(s string) QualifiedName {
	if i := strings.IndexByte(s, '.'); i > 0 {
		return QualifiedName{Namespace: s[:i], Name: s[i+1:]}
	}
	return QualifiedName{Name: s}
}

func (q QualifiedName) String() string {
	if q.Namespace == "" {
		return q.Name
	}
	return q.Namespace + "." + q.Name
}

// IsZero reports whether q is empty.
func (q QualifiedName) IsZero() bool {
	return q.Namespace == "" && q.Name == ""
}

// Deprecation is the structured deprecation marker attached to an entity.
type Deprecation struct {
	Message     string `json:"message"`
	Replacement string `json:"replacement,omitempty"`
	Source      string `json:"source"` // "runtime" | "lowlevel" | "docs"
}

// Direction of a callable parameter.
type Direction string

const (
	DirIn    Direction = "in"
	DirOut   Direction = "out"
	DirInOut Direction = "inout"
)

// IsInput reports whether the parameter is passed by the caller.
func (d Direction) IsInput() bool { return d == DirIn || d == DirInOut || d == "" }

// IsOutput reports whether the parameter is returned to the caller.
func (d Direction) IsOutput() bool { return d == DirOut || d == DirInOut }

// Role selects the decorators a callable gets.
type Role string

const (
	RoleFunction    Role = "function"    // module level
	RoleMethod      Role = "method"      // bound to an instance
	RoleConstructor Role = "constructor" // classmethod
	RoleStatic      Role = "static"      // function inside a class
	RoleGetter      Role = "getter"      // property
)

// Param is one callable parameter.
type Param struct {
	Name      string    `json:"name"`
	Type      *TypeRef  `json:"type"`
	Direction Direction `json:"direction"`
	Nullable  bool      `json:"nullable,omitempty"`
	Optional  bool      `json:"optional,omitempty"`
	Default   string    `json:"default,omitempty"` // rendered default, e.g. "None" or "..."
	Star      string    `json:"star,omitempty"`    // "" | "*" | "**"
	Doc       string    `json:"doc,omitempty"`
}

// Signature is one call shape of a callable.
type Signature struct {
	Params         []*Param `json:"params"`
	Return         *TypeRef `json:"return,omitempty"` // nil means no return value
	ReturnNullable bool     `json:"return_nullable,omitempty"`
	ReturnDoc      string   `json:"return_doc,omitempty"`
}

// Inputs returns the parameters passed by the caller.
func (s *Signature) Inputs() []*Param {
	var in []*Param
	for _, p := range s.Params {
		if p.Direction.IsInput() {
			in = append(in, p)
		}
	}
	return in
}

// Outputs returns the parameters returned to the caller.
func (s *Signature) Outputs() []*Param {
	var out []*Param
	for _, p := range s.Params {
		if p.Direction.IsOutput() {
			out = append(out, p)
		}
	}
	return out
}

// Property is a GObject property exposed on a class.
type Property struct {
	Name         string       `json:"name"`
	Type         *TypeRef     `json:"type"`
	Readable     bool         `json:"readable"`
	Writable     bool         `json:"writable"`
	Nullable     bool         `json:"nullable,omitempty"`
	Doc          string       `json:"doc,omitempty"`
	Deprecation  *Deprecation `json:"deprecation,omitempty"`
	BindingAdded bool         `json:"binding_added,omitempty"`
}

// Field is a struct field exposed on a boxed class.
type Field struct {
	Name         string       `json:"name"`
	Type         *TypeRef     `json:"type"`
	Readable     bool         `json:"readable"`
	Writable     bool         `json:"writable"`
	Nullable     bool         `json:"nullable,omitempty"`
	Doc          string       `json:"doc,omitempty"`
	Deprecation  *Deprecation `json:"deprecation,omitempty"`
	BindingAdded bool         `json:"binding_added,omitempty"`
}

// EnumMember is one value of an enum or flags type.
type EnumMember struct {
	Name        string       `json:"name"`
	Value       int64        `json:"value"`
	Doc         string       `json:"doc,omitempty"`
	Deprecation *Deprecation `json:"deprecation,omitempty"`
}
