// Package resolver is the cross-namespace pass of the pipeline. It fills
// every raw type reference from a run-wide symbol table and orders package
// groups for emission.
package resolver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/graph"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
)

// Group is a caller-declared package group.
type Group struct {
	Name       string
	Namespaces []string
	DependsOn  []string
}

// PlannedGroup is a group in emission order with the namespaces that will
// actually be emitted.
type PlannedGroup struct {
	Name       string
	Namespaces []string
	DependsOn  []string
}

// Plan is the resolver output.
type Plan struct {
	Groups []PlannedGroup

	// Skipped lists declared namespaces without IR, in declared order.
	Skipped []string

	Diagnostics []ir.Diagnostic

	Symbols *Symbols
}

// Group returns the planned group with the given name.
func (p *Plan) Group(name string) (PlannedGroup, bool) {
	for _, g := range p.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return PlannedGroup{}, false
}

// Options tune a resolve.
type Options struct {
	Log *zap.SugaredLogger

	// Failures explains why a declared namespace has no IR. It only feeds
	// the skip diagnostic.
	Failures map[string]error
}

// Resolve resolves the raw references of namespaces in place and plans
// group emission. namespaces holds every successfully built namespace of
// the run, dependencies included. A group cycle is a *CycleError, a
// malformed declaration a *ConfigError.
func Resolve(namespaces []*ir.Namespace, groups []Group, opts Options) (*Plan, error) {
	log := logging.OrNop(opts.Log)
	plan := &Plan{Symbols: NewSymbols()}

	byName := make(map[string]*ir.Namespace, len(namespaces))
	for _, ns := range namespaces {
		byName[ns.Name] = ns
	}

	g, owner, err := groupGraph(groups)
	if err != nil {
		return nil, err
	}
	addImplicitEdges(plan, g, owner, namespaces, log)

	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, &CycleError{Path: cycles[0]}
	}
	order, ok := g.DependencyOrder()
	if !ok {
		return nil, errors.AssertionFailedf("acyclic group graph has no order")
	}

	for _, ns := range namespaces {
		if err := plan.Symbols.Register(ns); err != nil {
			return nil, err
		}
	}

	preloads := graph.New()
	for _, ns := range namespaces {
		preloads.AddNode(ns.Name)
		for _, p := range ns.Preloads {
			preloads.AddEdge(ns.Name, p)
		}
	}
	for _, ns := range namespaces {
		search := append([]string{ns.Name}, preloads.Reachable(ns.Name)...)
		n := resolveNamespace(ns, search, plan.Symbols)
		log.Debugw("resolved namespace", logging.FieldNamespace, ns.Name, "unresolved", n)
	}
	for _, ns := range namespaces {
		if err := checkResolved(ns); err != nil {
			return nil, err
		}
	}

	declared := make(map[string]Group, len(groups))
	for _, gr := range groups {
		declared[gr.Name] = gr
	}
	for _, name := range order {
		gr := declared[name]
		pg := PlannedGroup{Name: name, DependsOn: g.Successors(name)}
		for _, n := range gr.Namespaces {
			if _, ok := byName[n]; ok {
				pg.Namespaces = append(pg.Namespaces, n)
				continue
			}
			plan.Skipped = append(plan.Skipped, n)
			msg := "no IR for namespace, skipped at emission"
			if cause := opts.Failures[n]; cause != nil {
				msg = fmt.Sprintf("%s: %v", msg, cause)
			}
			plan.Diagnostics = append(plan.Diagnostics, ir.Warn(ir.DiagNamespaceSkipped, n, "", msg))
			log.Warnw("namespace skipped", logging.FieldNamespace, n, logging.FieldGroup, name)
		}
		plan.Groups = append(plan.Groups, pg)
	}
	return plan, nil
}

func groupGraph(groups []Group) (*graph.Graph, map[string]string, error) {
	g := graph.New()
	owner := make(map[string]string)
	for _, gr := range groups {
		if g.HasNode(gr.Name) {
			return nil, nil, &ConfigError{Code: ErrCodeDuplicateGroup, Group: gr.Name, Message: "declared twice"}
		}
		g.AddNode(gr.Name)
		for _, n := range gr.Namespaces {
			if prev, ok := owner[n]; ok {
				return nil, nil, &ConfigError{
					Code: ErrCodeDuplicateMembership, Group: gr.Name,
					Message: fmt.Sprintf("namespace %s already belongs to group %s", n, prev),
				}
			}
			owner[n] = gr.Name
		}
	}
	for _, gr := range groups {
		for _, dep := range gr.DependsOn {
			if !g.HasNode(dep) {
				return nil, nil, &ConfigError{
					Code: ErrCodeUnknownGroup, Group: gr.Name,
					Message: fmt.Sprintf("depends on undeclared group %s", dep),
				}
			}
			g.AddEdge(gr.Name, dep)
		}
	}
	return g, owner, nil
}

// addImplicitEdges makes every preload that crosses groups a group
// dependency, warning when the edge was not declared.
func addImplicitEdges(plan *Plan, g *graph.Graph, owner map[string]string, namespaces []*ir.Namespace, log *zap.SugaredLogger) {
	for _, ns := range namespaces {
		from, ok := owner[ns.Name]
		if !ok {
			continue
		}
		for _, p := range ns.Preloads {
			to, ok := owner[p]
			if !ok || to == from || g.HasEdge(from, to) {
				continue
			}
			g.AddEdge(from, to)
			msg := fmt.Sprintf("preload %s puts group %s after %s; declare the dependency", p, from, to)
			plan.Diagnostics = append(plan.Diagnostics, ir.Warn(ir.DiagImplicitEdge, ns.Name, "", msg))
			log.Warnw("implicit group edge", logging.FieldNamespace, ns.Name, logging.FieldGroup, from, "depends_on", to)
		}
	}
}

// resolveNamespace fills the raw references of ns, searching the
// namespaces of search in order. It returns how many stayed unresolved.
func resolveNamespace(ns *ir.Namespace, search []string, symbols *Symbols) int {
	allowed := make(map[string]bool, len(search))
	for _, s := range search {
		allowed[s] = true
	}

	unresolved := 0
	for _, e := range ns.Entities {
		ir.WalkRefs(e, func(path string, ref *ir.TypeRef) {
			if !ref.IsRaw() {
				return
			}
			if target, ok := lookup(ref.Hint, search, allowed, symbols); ok {
				ref.Resolve(target)
				return
			}
			ref.MarkUnresolved()
			unresolved++
			ns.Diagnose(ir.Warn(ir.DiagUnresolved, ns.Name, path,
				fmt.Sprintf("cannot resolve type %q, rendered as typing.Any", ref.Hint)))
		})
	}
	return unresolved
}

// lookup resolves a hint. A qualified hint only searches its own
// namespace, and only when that namespace is local or a dependency.
func lookup(hint string, search []string, allowed map[string]bool, symbols *Symbols) (ir.QualifiedName, bool) {
	q := ir.ParseQualified(hint)
	if q.Namespace != "" {
		if !allowed[q.Namespace] {
			return ir.QualifiedName{}, false
		}
		_, ok := symbols.LookupType(q)
		return q, ok
	}
	for _, ns := range search {
		candidate := ir.Q(ns, q.Name)
		if _, ok := symbols.LookupType(candidate); ok {
			return candidate, true
		}
	}
	return ir.QualifiedName{}, false
}

func checkResolved(ns *ir.Namespace) error {
	var bad error
	for _, e := range ns.Entities {
		ir.WalkRefs(e, func(path string, ref *ir.TypeRef) {
			if bad == nil && ref.IsRaw() {
				bad = errors.AssertionFailedf("raw reference %q left at %s.%s", ref.Hint, ns.Name, path)
			}
		})
	}
	return bad
}
