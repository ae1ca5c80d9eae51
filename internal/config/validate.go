package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
)

// Problem is one validation failure.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Field, p.Message)
}

// ValidationError collects every problem found in a manifest.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return "invalid manifest: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Sources accepted by precedence settings.
const (
	SourceLowLevel = "lowlevel"
	SourceWrapper  = "wrapper"
)

// Validate checks structural rules that do not need the group graph:
// unique names, declared preloads, group membership and precedence values.
// Cycles between groups are the resolver's concern.
func (m *Manifest) Validate() error {
	var problems []Problem
	add := func(field, format string, args ...any) {
		problems = append(problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(m.Namespaces) == 0 {
		add("namespaces", "at least one namespace is required")
	}

	declared := make(map[string]bool, len(m.Namespaces))
	for i, ns := range m.Namespaces {
		field := fmt.Sprintf("namespaces[%d]", i)
		if ns.Name == "" {
			add(field+".name", "name is required")
			continue
		}
		if declared[ns.Name] {
			add(field+".name", "namespace %q declared twice", ns.Name)
		}
		declared[ns.Name] = true
		if ns.Version != "" {
			if _, err := semver.NewVersion(ns.Version); err != nil {
				add(field+".version", "version %q is not a valid version: %v", ns.Version, err)
			}
		}
	}

	for i, ns := range m.Namespaces {
		for j, pre := range ns.Preloads {
			field := fmt.Sprintf("namespaces[%d].preloads[%d]", i, j)
			switch {
			case pre == ns.Name:
				add(field, "namespace %q preloads itself", ns.Name)
			case !declared[pre]:
				add(field, "preload %q is not a declared namespace", pre)
			}
		}
	}

	owner := make(map[string]string)
	groups := make(map[string]bool, len(m.Groups))
	for i, g := range m.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if g.Name == "" {
			add(field+".name", "name is required")
			continue
		}
		if groups[g.Name] {
			add(field+".name", "group %q declared twice", g.Name)
		}
		groups[g.Name] = true
		for _, n := range g.Namespaces {
			if !declared[n] {
				add(field+".namespaces", "namespace %q is not declared", n)
				continue
			}
			if prev, ok := owner[n]; ok {
				add(field+".namespaces", "namespace %q already belongs to group %q", n, prev)
				continue
			}
			owner[n] = g.Name
		}
	}
	for i, g := range m.Groups {
		for _, dep := range g.DependsOn {
			if !groups[dep] {
				add(fmt.Sprintf("groups[%d].depends_on", i), "group %q is not declared", dep)
			}
		}
	}

	kinds := make([]string, 0, len(m.Precedence.Default))
	for kind := range m.Precedence.Default {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		source := m.Precedence.Default[kind]
		if !ir.EntityKind(kind).Valid() {
			add("precedence.default", "unknown entity kind %q", kind)
		}
		if !validSource(source) {
			add("precedence.default."+kind, "source must be %q or %q, got %q", SourceLowLevel, SourceWrapper, source)
		}
	}
	for i, e := range m.Precedence.Exceptions {
		field := fmt.Sprintf("precedence.exceptions[%d]", i)
		if !declared[e.Namespace] {
			add(field+".namespace", "namespace %q is not declared", e.Namespace)
		}
		if !ir.EntityKind(e.Kind).Valid() {
			add(field+".kind", "unknown entity kind %q", e.Kind)
		}
		if !validSource(e.Source) {
			add(field+".source", "source must be %q or %q, got %q", SourceLowLevel, SourceWrapper, e.Source)
		}
		if strings.TrimSpace(e.Reason) == "" {
			add(field+".reason", "a reason is required for namespace-specific exceptions")
		}
	}

	for i, o := range m.Overrides {
		field := fmt.Sprintf("overrides[%d]", i)
		if !declared[o.Namespace] {
			add(field+".namespace", "namespace %q is not declared", o.Namespace)
		}
		if o.Entity == "" {
			add(field+".entity", "entity is required")
		}
		for j, a := range o.Add {
			if a.Name == "" {
				add(fmt.Sprintf("%s.add[%d].name", field, j), "name is required")
			}
		}
	}

	if m.Workers < 0 {
		add("workers", "must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validSource(s string) bool {
	return s == SourceLowLevel || s == SourceWrapper
}
