package ir

import (
	"encoding/json"
	"fmt"
)

// Namespace is the IR of one reflected namespace.
type Namespace struct {
	Name     string
	Version  string
	Preloads []string // dependency namespace names, declared order

	// Entities in declaration order.
	Entities []Entity

	Diagnostics []Diagnostic

	index map[string]Entity
}

// NewNamespace creates an empty namespace.
func NewNamespace(name, version string, preloads []string) *Namespace {
	return &Namespace{
		Name:     name,
		Version:  version,
		Preloads: preloads,
		index:    make(map[string]Entity),
	}
}

// Ref returns "Name-Version", the identifier used for files on disk.
func (n *Namespace) Ref() string {
	return n.Name + "-" + n.Version
}

// Add appends an entity. It returns false when the local name is taken.
func (n *Namespace) Add(e Entity) bool {
	if n.index == nil {
		n.index = make(map[string]Entity)
	}
	local := e.Ident().Name
	if _, exists := n.index[local]; exists {
		return false
	}
	n.index[local] = e
	n.Entities = append(n.Entities, e)
	return true
}

// Lookup finds an entity by local name.
func (n *Namespace) Lookup(local string) (Entity, bool) {
	e, ok := n.index[local]
	return e, ok
}

// Diagnose records a diagnostic against this namespace.
func (n *Namespace) Diagnose(d Diagnostic) {
	if d.Namespace == "" {
		d.Namespace = n.Name
	}
	n.Diagnostics = append(n.Diagnostics, d)
}

// Count returns the number of entities of each kind.
func (n *Namespace) Count() map[EntityKind]int {
	counts := make(map[EntityKind]int)
	for _, e := range n.Entities {
		counts[e.Kind()]++
	}
	return counts
}

type namespaceJSON struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Preloads    []string       `json:"preloads"`
	Entities    []taggedEntity `json:"entities"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

type taggedEntity struct {
	Kind   EntityKind `json:"kind"`
	Entity Entity     `json:"entity"`
}

// MarshalJSON tags each entity with its kind so dumps stay readable.
func (n *Namespace) MarshalJSON() ([]byte, error) {
	out := namespaceJSON{
		Name:        n.Name,
		Version:     n.Version,
		Preloads:    n.Preloads,
		Entities:    make([]taggedEntity, len(n.Entities)),
		Diagnostics: n.Diagnostics,
	}
	if out.Preloads == nil {
		out.Preloads = []string{}
	}
	for i, e := range n.Entities {
		out.Entities[i] = taggedEntity{Kind: e.Kind(), Entity: e}
	}
	return json.Marshal(out)
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic codes.
const (
	DiagDocParse          = "DOC_PARSE"
	DiagProbeFault        = "PROBE_FAULT"
	DiagUnresolved        = "UNRESOLVED"
	DiagPrecedence        = "PRECEDENCE_EXCEPTION"
	DiagUnknownMember     = "UNKNOWN_MEMBER"
	DiagDuplicateMember   = "DUPLICATE_MEMBER"
	DiagDuplicateIdentity = "DUPLICATE_IDENTITY"
	DiagImplicitEdge      = "IMPLICIT_GROUP_EDGE"
	DiagNamespaceSkipped  = "NAMESPACE_SKIPPED"
	DiagActivation        = "ACTIVATION_FAILED"
	DiagBuild             = "BUILD_FAILED"
)

// Diagnostic is a non-fatal finding recorded during a run.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Namespace string   `json:"namespace,omitempty"`
	Entity    string   `json:"entity,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.Namespace
	if d.Entity != "" {
		loc += "." + d.Entity
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, loc, d.Message)
}

// Warn builds a warning diagnostic.
func Warn(code, namespace, entity, message string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Namespace: namespace, Entity: entity, Message: message}
}

// Info builds an informational diagnostic.
func Info(code, namespace, entity, message string) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Code: code, Namespace: namespace, Entity: entity, Message: message}
}
