package config

import (
	"sort"
)

// Manifest is the run configuration: which namespaces to reflect, how they
// are partitioned into package groups and how the reflector should merge
// its two metadata sources.
type Manifest struct {
	Namespaces  []NamespaceSpec `yaml:"namespaces" toml:"namespaces" json:"namespaces"`
	Groups      []GroupSpec     `yaml:"groups,omitempty" toml:"groups,omitempty" json:"groups,omitempty"`
	Precedence  PrecedenceSpec  `yaml:"precedence,omitempty" toml:"precedence,omitempty" json:"precedence,omitempty"`
	Overrides   []OverrideSpec  `yaml:"overrides,omitempty" toml:"overrides,omitempty" json:"overrides,omitempty"`
	Docs        DocsSpec        `yaml:"docs,omitempty" toml:"docs,omitempty" json:"docs,omitempty"`
	SnapshotDir string          `yaml:"snapshot_dir,omitempty" toml:"snapshot_dir,omitempty" json:"snapshot_dir,omitempty"`
	Workers     int             `yaml:"workers,omitempty" toml:"workers,omitempty" json:"workers,omitempty"`
}

// NamespaceSpec declares one namespace of the run.
type NamespaceSpec struct {
	Name    string `yaml:"name" toml:"name" json:"name"`
	Version string `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty"`

	// Preloads are namespace names activated before this one, in order.
	// Each must be declared in Namespaces.
	Preloads []string `yaml:"preloads,omitempty" toml:"preloads,omitempty" json:"preloads,omitempty"`

	// CPrefix is the C identifier prefix ("G" for GLib). Names starting
	// with it lose canonical ties during duplicate folding.
	CPrefix string `yaml:"c_prefix,omitempty" toml:"c_prefix,omitempty" json:"c_prefix,omitempty"`

	// Docs is an explicit GIR path; empty means the docs search path.
	Docs string `yaml:"docs,omitempty" toml:"docs,omitempty" json:"docs,omitempty"`
}

// GroupSpec is one independently installable output package.
type GroupSpec struct {
	Name       string   `yaml:"name" toml:"name" json:"name"`
	Namespaces []string `yaml:"namespaces" toml:"namespaces" json:"namespaces"`
	DependsOn  []string `yaml:"depends_on,omitempty" toml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// PrecedenceSpec selects the authoritative source for structural shape per
// entity kind. Values are "lowlevel" or "wrapper".
type PrecedenceSpec struct {
	Default    map[string]string     `yaml:"default,omitempty" toml:"default,omitempty" json:"default,omitempty"`
	Exceptions []PrecedenceException `yaml:"exceptions,omitempty" toml:"exceptions,omitempty" json:"exceptions,omitempty"`
}

// PrecedenceException overrides the per-kind default for one namespace.
// Reason is required so the exception never goes unexplained.
type PrecedenceException struct {
	Namespace string `yaml:"namespace" toml:"namespace" json:"namespace"`
	Kind      string `yaml:"kind" toml:"kind" json:"kind"`
	Source    string `yaml:"source" toml:"source" json:"source"`
	Reason    string `yaml:"reason" toml:"reason" json:"reason"`
}

// OverrideSpec patches the wrapper surface of one entity.
type OverrideSpec struct {
	Namespace string       `yaml:"namespace" toml:"namespace" json:"namespace"`
	Entity    string       `yaml:"entity" toml:"entity" json:"entity"`
	Hide      []string     `yaml:"hide,omitempty" toml:"hide,omitempty" json:"hide,omitempty"`
	Add       []MemberSpec `yaml:"add,omitempty" toml:"add,omitempty" json:"add,omitempty"`
}

// MemberSpec is a member added by an override.
type MemberSpec struct {
	Name    string      `yaml:"name" toml:"name" json:"name"`
	Kind    string      `yaml:"kind,omitempty" toml:"kind,omitempty" json:"kind,omitempty"` // method | function | constructor | field
	Params  []ParamSpec `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
	Returns string      `yaml:"returns,omitempty" toml:"returns,omitempty" json:"returns,omitempty"`
	Type    string      `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"` // field type
	Doc     string      `yaml:"doc,omitempty" toml:"doc,omitempty" json:"doc,omitempty"`
}

// ParamSpec is one parameter of an added member.
type ParamSpec struct {
	Name    string `yaml:"name" toml:"name" json:"name"`
	Type    string `yaml:"type" toml:"type" json:"type"`
	Default string `yaml:"default,omitempty" toml:"default,omitempty" json:"default,omitempty"`
}

// DocsSpec configures the GIR documentation source.
type DocsSpec struct {
	SearchPaths []string `yaml:"search_paths,omitempty" toml:"search_paths,omitempty" json:"search_paths,omitempty"`
}

// DefaultGroupName names the implicit group used when none are declared.
const DefaultGroupName = "stubs"

// DefaultWorkers bounds namespace concurrency when the manifest is silent.
const DefaultWorkers = 4

// DefaultDocsPath is searched when no docs path is configured.
const DefaultDocsPath = "/usr/share/gir-1.0"

// Normalize fills defaults in place: an implicit group holding every
// namespace when no groups are declared, the worker bound and the docs
// search path.
func (m *Manifest) Normalize() {
	if len(m.Groups) == 0 && len(m.Namespaces) > 0 {
		names := make([]string, len(m.Namespaces))
		for i, ns := range m.Namespaces {
			names[i] = ns.Name
		}
		m.Groups = []GroupSpec{{Name: DefaultGroupName, Namespaces: names}}
	}
	if m.Workers <= 0 {
		m.Workers = DefaultWorkers
	}
	if len(m.Docs.SearchPaths) == 0 {
		m.Docs.SearchPaths = []string{DefaultDocsPath}
	}
}

// Namespace returns the declared namespace with the given name.
func (m *Manifest) Namespace(name string) (NamespaceSpec, bool) {
	for _, ns := range m.Namespaces {
		if ns.Name == name {
			return ns, true
		}
	}
	return NamespaceSpec{}, false
}

// Emitted reports whether a namespace belongs to a group. Namespaces outside
// every group are reflected for resolution only.
func (m *Manifest) Emitted(name string) bool {
	for _, g := range m.Groups {
		for _, n := range g.Namespaces {
			if n == name {
				return true
			}
		}
	}
	return false
}

// OverridesFor returns the override patches of one namespace in declared order.
func (m *Manifest) OverridesFor(namespace string) []OverrideSpec {
	var out []OverrideSpec
	for _, o := range m.Overrides {
		if o.Namespace == namespace {
			out = append(out, o)
		}
	}
	return out
}

// Canonical returns the manifest as plain values for digesting.
func (m *Manifest) Canonical() map[string]any {
	namespaces := make([]any, len(m.Namespaces))
	for i, ns := range m.Namespaces {
		namespaces[i] = map[string]any{
			"name":     ns.Name,
			"version":  ns.Version,
			"preloads": stringsOrEmpty(ns.Preloads),
			"c_prefix": ns.CPrefix,
			"docs":     ns.Docs,
		}
	}

	groups := make([]any, len(m.Groups))
	for i, g := range m.Groups {
		groups[i] = map[string]any{
			"name":       g.Name,
			"namespaces": stringsOrEmpty(g.Namespaces),
			"depends_on": stringsOrEmpty(g.DependsOn),
		}
	}

	kinds := make([]string, 0, len(m.Precedence.Default))
	for k := range m.Precedence.Default {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	defaults := make(map[string]any, len(kinds))
	for _, k := range kinds {
		defaults[k] = m.Precedence.Default[k]
	}

	exceptions := make([]any, len(m.Precedence.Exceptions))
	for i, e := range m.Precedence.Exceptions {
		exceptions[i] = map[string]any{
			"namespace": e.Namespace,
			"kind":      e.Kind,
			"source":    e.Source,
			"reason":    e.Reason,
		}
	}

	overrides := make([]any, len(m.Overrides))
	for i, o := range m.Overrides {
		added := make([]any, len(o.Add))
		for j, a := range o.Add {
			params := make([]any, len(a.Params))
			for k, p := range a.Params {
				params[k] = map[string]any{"name": p.Name, "type": p.Type, "default": p.Default}
			}
			added[j] = map[string]any{
				"name": a.Name, "kind": a.Kind, "returns": a.Returns,
				"type": a.Type, "doc": a.Doc, "params": params,
			}
		}
		overrides[i] = map[string]any{
			"namespace": o.Namespace,
			"entity":    o.Entity,
			"hide":      stringsOrEmpty(o.Hide),
			"add":       added,
		}
	}

	return map[string]any{
		"namespaces": namespaces,
		"groups":     groups,
		"precedence": map[string]any{"default": defaults, "exceptions": exceptions},
		"overrides":  overrides,
	}
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
