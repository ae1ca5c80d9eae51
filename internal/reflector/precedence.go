package reflector

import (
	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/ir"
)

// Source names one of the two metadata sources.
type Source string

const (
	SourceLowLevel Source = config.SourceLowLevel
	SourceWrapper  Source = config.SourceWrapper
)

// Precedence picks the authoritative source of structural shape (argument
// list, direction, nullability, bases) per entity kind. Kinds without an
// entry use the low-level source.
type Precedence struct {
	Default    map[ir.EntityKind]Source
	Exceptions []Exception
}

// Exception overrides the per-kind default for one namespace.
type Exception struct {
	Namespace string
	Kind      ir.EntityKind
	Source    Source
	Reason    string
}

// PrecedenceFromConfig converts the manifest section.
func PrecedenceFromConfig(spec config.PrecedenceSpec) Precedence {
	p := Precedence{Default: make(map[ir.EntityKind]Source, len(spec.Default))}
	for kind, source := range spec.Default {
		p.Default[ir.EntityKind(kind)] = Source(source)
	}
	for _, e := range spec.Exceptions {
		p.Exceptions = append(p.Exceptions, Exception{
			Namespace: e.Namespace,
			Kind:      ir.EntityKind(e.Kind),
			Source:    Source(e.Source),
			Reason:    e.Reason,
		})
	}
	return p
}

// For returns the source for kind in namespace. A matching exception wins
// over the default.
func (p Precedence) For(namespace string, kind ir.EntityKind) Source {
	for _, e := range p.Exceptions {
		if e.Namespace == namespace && e.Kind == kind {
			return e.Source
		}
	}
	if s, ok := p.Default[kind]; ok {
		return s
	}
	return SourceLowLevel
}

// ExceptionsFor returns the exceptions that apply to namespace, in
// declared order.
func (p Precedence) ExceptionsFor(namespace string) []Exception {
	var out []Exception
	for _, e := range p.Exceptions {
		if e.Namespace == namespace {
			out = append(out, e)
		}
	}
	return out
}
