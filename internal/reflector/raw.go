package reflector

import (
	"github.com/roach88/gistub/internal/ir"
)

// Raw is the reflector output for one namespace: merged records from both
// sources, in low-level declaration order followed by wrapper-only
// entities in wrapper order.
type Raw struct {
	Handle      Handle          `json:"handle"`
	Namespace   string          `json:"namespace"`
	Version     string          `json:"version"`
	Preloads    []string        `json:"preloads"`
	Entities    []*RawEntity    `json:"entities"`
	Diagnostics []ir.Diagnostic `json:"diagnostics,omitempty"`
}

// Entity returns the raw entity with the given name.
func (r *Raw) Entity(name string) *RawEntity {
	for _, e := range r.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Presence records which sources reported an entity or member.
//
// Wrapper is only meaningful when the wrapper enumerated the enclosing
// scope (see RawEntity.WrapperKnown and MembersKnown). Hidden marks a
// member removed by a manifest override.
type Presence struct {
	LowLevel bool `json:"lowlevel"`
	Wrapper  bool `json:"wrapper"`
	Hidden   bool `json:"hidden,omitempty"`
}

// RawEntity is one merged entity or member record.
type RawEntity struct {
	Presence

	Name       string        `json:"name"`
	Kind       ir.EntityKind `json:"kind"`
	Identity   string        `json:"identity,omitempty"`
	Deprecated bool          `json:"deprecated,omitempty"` // low-level flag
	Doc        string        `json:"doc,omitempty"`        // wrapper or override docstring

	// WrapperKnown is true when the wrapper enumerated the namespace top
	// level, MembersKnown when it enumerated this entity's members.
	WrapperKnown bool `json:"wrapper_known,omitempty"`
	MembersKnown bool `json:"members_known,omitempty"`

	// Source is the precedence that shaped this record.
	Source Source `json:"source"`

	Bases      []string       `json:"bases,omitempty"`
	Interfaces []string       `json:"interfaces,omitempty"`
	Methods    []*RawEntity   `json:"methods,omitempty"`
	Properties []*RawProperty `json:"properties,omitempty"`
	Fields     []*RawField    `json:"fields,omitempty"`
	Signals    []*RawSignal   `json:"signals,omitempty"`

	Role       ir.Role        `json:"role,omitempty"`
	Signatures []RawSignature `json:"signatures,omitempty"`
	Throws     bool           `json:"throws,omitempty"`

	Values []LowValue `json:"values,omitempty"`

	ConstType  string `json:"const_type,omitempty"`
	ConstValue string `json:"const_value,omitempty"`

	Target string `json:"target,omitempty"`
}

// Method returns the member callable with the given name.
func (e *RawEntity) Method(name string) *RawEntity {
	for _, m := range e.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// RawSignature is one call shape.
type RawSignature struct {
	Params []LowParam `json:"params"`
	Return *LowReturn `json:"return,omitempty"`
	Origin Source     `json:"origin"`
}

// RawProperty is a property with its presence.
type RawProperty struct {
	LowProperty
	Presence
	Doc string `json:"doc,omitempty"`
}

// RawField is a field with its presence.
type RawField struct {
	LowField
	Presence
	Doc string `json:"doc,omitempty"`
}

// RawSignal is a signal with its presence.
type RawSignal struct {
	LowSignal
	Presence
}
