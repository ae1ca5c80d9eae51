package resolver

import (
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
)

// Symbols maps qualified names to entities across every namespace of a
// run. Each name is registered once.
type Symbols struct {
	entries map[ir.QualifiedName]ir.Entity
}

// NewSymbols creates an empty table.
func NewSymbols() *Symbols {
	return &Symbols{entries: make(map[ir.QualifiedName]ir.Entity)}
}

// Register adds every entity of ns. A name registered twice is an
// internal error: namespace IR never repeats an identifier.
func (s *Symbols) Register(ns *ir.Namespace) error {
	for _, e := range ns.Entities {
		q := e.Ident()
		if _, ok := s.entries[q]; ok {
			return errors.AssertionFailedf("symbol %s registered twice", q)
		}
		s.entries[q] = e
	}
	return nil
}

// Lookup returns the entity with the qualified name q.
func (s *Symbols) Lookup(q ir.QualifiedName) (ir.Entity, bool) {
	e, ok := s.entries[q]
	return e, ok
}

// LookupType is Lookup restricted to entities a type reference may name.
func (s *Symbols) LookupType(q ir.QualifiedName) (ir.Entity, bool) {
	e, ok := s.entries[q]
	if !ok {
		return nil, false
	}
	switch e.Kind() {
	case ir.KindClass, ir.KindInterface, ir.KindEnum, ir.KindFlags, ir.KindCallback, ir.KindAlias:
		return e, true
	}
	return nil, false
}

// Len returns the number of registered symbols.
func (s *Symbols) Len() int { return len(s.entries) }
