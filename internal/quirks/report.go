package quirks

import (
	"github.com/roach88/gistub/internal/ir"
)

// Tag marks a surface difference between the two metadata sources.
type Tag string

const (
	// TagBindingAdded marks members only the wrapper exposes. They are kept.
	TagBindingAdded Tag = "binding-added"

	// TagBindingHidden marks low-level members the wrapper does not expose.
	// They are not callable and are excluded from the IR.
	TagBindingHidden Tag = "binding-hidden"
)

// Annotation is what the detector learned about one entity or member.
type Annotation struct {
	Deprecation *ir.Deprecation `json:"deprecation,omitempty"`
	Tag         Tag             `json:"tag,omitempty"`

	// Fault is set when probing failed. The entity keeps raw metadata only.
	Fault string `json:"fault,omitempty"`
}

// Hidden reports whether the annotated item must be excluded.
func (a Annotation) Hidden() bool { return a.Tag == TagBindingHidden }

// Added reports whether the item exists only in the wrapper.
func (a Annotation) Added() bool { return a.Tag == TagBindingAdded }

// Report is the detector output for one namespace. Lookups of unknown
// names return the zero Annotation.
type Report struct {
	Namespace string `json:"namespace"`

	annotations map[string]Annotation

	// Canonical maps each folded alias name to its canonical entity name.
	Canonical map[string]string `json:"canonical,omitempty"`

	Diagnostics []ir.Diagnostic `json:"diagnostics,omitempty"`
}

// NewReport creates an empty report.
func NewReport(namespace string) *Report {
	return &Report{
		Namespace:   namespace,
		annotations: make(map[string]Annotation),
		Canonical:   make(map[string]string),
	}
}

// Keys: "Entity", "Entity.method", "Entity:property", "Entity#field",
// "Entity::signal".

func entityKey(name string) string          { return name }
func methodKey(owner, name string) string   { return owner + "." + name }
func propertyKey(owner, name string) string { return owner + ":" + name }
func fieldKey(owner, name string) string    { return owner + "#" + name }
func signalKey(owner, name string) string   { return owner + "::" + name }

// Entity returns the annotation of a top-level entity.
func (r *Report) Entity(name string) Annotation { return r.get(entityKey(name)) }

// Method returns the annotation of a member callable.
func (r *Report) Method(owner, name string) Annotation { return r.get(methodKey(owner, name)) }

// Property returns the annotation of a property.
func (r *Report) Property(owner, name string) Annotation { return r.get(propertyKey(owner, name)) }

// Field returns the annotation of a field.
func (r *Report) Field(owner, name string) Annotation { return r.get(fieldKey(owner, name)) }

// Signal returns the annotation of a signal.
func (r *Report) Signal(owner, name string) Annotation { return r.get(signalKey(owner, name)) }

// CanonicalOf returns the canonical name an alias was folded onto.
func (r *Report) CanonicalOf(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	c, ok := r.Canonical[name]
	return c, ok
}

func (r *Report) get(key string) Annotation {
	if r == nil {
		return Annotation{}
	}
	return r.annotations[key]
}

func (r *Report) set(key string, update func(*Annotation)) {
	a := r.annotations[key]
	update(&a)
	r.annotations[key] = a
}
