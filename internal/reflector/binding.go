package reflector

import (
	"context"
)

// Handle identifies an activated namespace. Version is the version the
// binding layer actually activated.
type Handle struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Version   string `yaml:"version" json:"version"`
	ID        string `yaml:"id,omitempty" json:"id,omitempty"`
}

// Ref returns "Namespace-Version".
func (h Handle) Ref() string { return h.Namespace + "-" + h.Version }

// Activator loads a namespace into the binding layer. Activation is
// process-global: once active, a namespace stays active. preloads must
// already be active, in order.
type Activator interface {
	Activate(ctx context.Context, name, version string, preloads []Handle) (Handle, error)
}

// LowLevel enumerates the introspection metadata of an active namespace.
type LowLevel interface {
	Entities(ctx context.Context, h Handle) ([]LowEntity, error)
}

// Wrapper exposes the binding layer's own view of an active namespace.
type Wrapper interface {
	// Surface enumerates exposed attributes per entity.
	Surface(ctx context.Context, h Handle) (*WrapperSurface, error)

	// Access touches one attribute ("Widget" or "Widget.show") and reports
	// the deprecation warnings raised while doing so. Any returned error is
	// a probe fault, not a deprecation.
	Access(ctx context.Context, h Handle, path string) (AccessResult, error)
}

// Binding is the full collaborator surface.
type Binding interface {
	Activator
	LowLevel
	Wrapper
}

// LowEntity is one entity as the low-level introspection layer reports it.
// Members reuse the type: methods are LowEntity values with a Role.
type LowEntity struct {
	Name       string `yaml:"name" json:"name"`
	Kind       string `yaml:"kind" json:"kind"`
	Identity   string `yaml:"identity,omitempty" json:"identity,omitempty"`
	Deprecated bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`

	// Classes and interfaces
	Bases      []string      `yaml:"bases,omitempty" json:"bases,omitempty"`
	Interfaces []string      `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Methods    []LowEntity   `yaml:"methods,omitempty" json:"methods,omitempty"`
	Properties []LowProperty `yaml:"properties,omitempty" json:"properties,omitempty"`
	Fields     []LowField    `yaml:"fields,omitempty" json:"fields,omitempty"`
	Signals    []LowSignal   `yaml:"signals,omitempty" json:"signals,omitempty"`

	// Callables
	Role   string     `yaml:"role,omitempty" json:"role,omitempty"` // method | constructor | static | getter
	Params []LowParam `yaml:"params,omitempty" json:"params,omitempty"`
	Return *LowReturn `yaml:"return,omitempty" json:"return,omitempty"`
	Throws bool       `yaml:"throws,omitempty" json:"throws,omitempty"`

	// Enums and flags
	Values []LowValue `yaml:"values,omitempty" json:"values,omitempty"`

	// Constants
	Type  string `yaml:"type,omitempty" json:"type,omitempty"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// Aliases to an entity of another namespace
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

// LowParam describes one argument.
type LowParam struct {
	Name      string `yaml:"name" json:"name"`
	Type      string `yaml:"type" json:"type"`
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"` // in | out | inout
	Nullable  bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Optional  bool   `yaml:"optional,omitempty" json:"optional,omitempty"`

	// ArrayLength marks a C length argument of another array argument.
	// The binding layer fills it in, so it never appears in signatures.
	ArrayLength bool `yaml:"array_length,omitempty" json:"array_length,omitempty"`

	// Wrapper-level extras
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
	Star    string `yaml:"star,omitempty" json:"star,omitempty"`
}

// LowReturn describes the C return value.
type LowReturn struct {
	Type     string `yaml:"type" json:"type"`
	Nullable bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Skip     bool   `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// LowProperty describes a GObject property.
type LowProperty struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Readable   bool   `yaml:"readable" json:"readable"`
	Writable   bool   `yaml:"writable" json:"writable"`
	Nullable   bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Deprecated bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
}

// LowField describes a struct field.
type LowField struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Readable   bool   `yaml:"readable" json:"readable"`
	Writable   bool   `yaml:"writable" json:"writable"`
	Nullable   bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Deprecated bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
}

// LowSignal describes a class signal; Params exclude the emitting instance.
type LowSignal struct {
	Name       string     `yaml:"name" json:"name"`
	Params     []LowParam `yaml:"params,omitempty" json:"params,omitempty"`
	Return     string     `yaml:"return,omitempty" json:"return,omitempty"`
	Detailed   bool       `yaml:"detailed,omitempty" json:"detailed,omitempty"`
	Deprecated bool       `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
}

// LowValue is one enum or flags member.
type LowValue struct {
	Name       string `yaml:"name" json:"name"`
	Value      int64  `yaml:"value" json:"value"`
	Deprecated bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
}

// WrapperSurface is the binding layer's enumeration of a namespace.
// A nil Entities slice means the top level was not enumerated.
type WrapperSurface struct {
	Entities []WrapperEntity `yaml:"entities" json:"entities"`
}

// WrapperEntity is one exposed attribute of the namespace.
// A nil Members slice means the entity's members were not enumerated.
type WrapperEntity struct {
	Name       string             `yaml:"name" json:"name"`
	Kind       string             `yaml:"kind,omitempty" json:"kind,omitempty"` // needed for wrapper-only entities
	Bases      []string           `yaml:"bases,omitempty" json:"bases,omitempty"`
	Members    []WrapperMember    `yaml:"members" json:"members"`
	Signatures []WrapperSignature `yaml:"signatures,omitempty" json:"signatures,omitempty"`
	Doc        string             `yaml:"doc,omitempty" json:"doc,omitempty"`
}

// WrapperMember is one exposed member of an entity.
type WrapperMember struct {
	Name       string             `yaml:"name" json:"name"`
	Kind       string             `yaml:"kind,omitempty" json:"kind,omitempty"` // method | function | constructor | property | field | signal
	Type       string             `yaml:"type,omitempty" json:"type,omitempty"`
	Signatures []WrapperSignature `yaml:"signatures,omitempty" json:"signatures,omitempty"`
	Doc        string             `yaml:"doc,omitempty" json:"doc,omitempty"`
}

// WrapperSignature is one Python-level call shape.
type WrapperSignature struct {
	Params  []LowParam `yaml:"params,omitempty" json:"params,omitempty"`
	Returns string     `yaml:"returns,omitempty" json:"returns,omitempty"`
}

// AccessResult reports what touching an attribute produced.
type AccessResult struct {
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}
