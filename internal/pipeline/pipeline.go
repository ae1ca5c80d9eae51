// Package pipeline runs one stub generation end to end.
//
// Each declared namespace gets a worker that reflects it, matches its
// documentation, detects quirks and builds its IR. Workers share only the
// activation gate. Resolution and emission run once every worker is done.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/gistub/internal/builder"
	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/docs"
	"github.com/roach88/gistub/internal/emitter"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
	"github.com/roach88/gistub/internal/quirks"
	"github.com/roach88/gistub/internal/reflector"
	"github.com/roach88/gistub/internal/resolver"
)

// Config wires a run.
type Config struct {
	Manifest *config.Manifest
	Binding  reflector.Binding

	// Docs defaults to the manifest search paths when nil.
	Docs docs.Source

	Log *zap.SugaredLogger
}

// Result is everything a run produced.
type Result struct {
	// Namespaces holds the built IR in declared order.
	Namespaces []*ir.Namespace

	// Failures maps each namespace that produced no IR to its error.
	Failures map[string]error

	Plan   *resolver.Plan
	Output *emitter.Output

	ManifestDigest string
	RunDigest      string
	Duration       time.Duration
}

// Diagnostics returns every diagnostic of the run: per namespace in
// declared order, then the resolver's.
func (r *Result) Diagnostics() []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, ns := range r.Namespaces {
		out = append(out, ns.Diagnostics...)
	}
	if r.Plan != nil {
		out = append(out, r.Plan.Diagnostics...)
	}
	return out
}

// Run generates the stub tree for cfg.Manifest. A namespace failure is
// recorded and the namespace skipped; only run-wide failures such as a
// group cycle are returned as errors.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Manifest == nil || cfg.Binding == nil {
		return nil, errors.New("pipeline: manifest and binding are required")
	}
	start := time.Now()
	log := logging.OrNop(cfg.Log)
	m := cfg.Manifest

	manifestDigest, err := ir.ManifestDigest(m.Canonical())
	if err != nil {
		return nil, errors.Wrap(err, "digest manifest")
	}

	src := cfg.Docs
	if src == nil {
		src = docsSource(m)
	}

	specs := make([]reflector.Spec, len(m.Namespaces))
	for i, ns := range m.Namespaces {
		specs[i] = reflector.Spec{Name: ns.Name, Version: ns.Version, Preloads: ns.Preloads}
	}
	gate := reflector.NewGate(cfg.Binding, specs)

	w := &worker{
		reflector: reflector.New(gate, cfg.Binding, cfg.Binding, reflector.PrecedenceFromConfig(m.Precedence), log),
		detector:  quirks.NewDetector(cfg.Binding, log),
		matcher:   docs.NewMatcher(src, log),
		manifest:  m,
		log:       log,
	}

	built := make([]*ir.Namespace, len(specs))
	failed := make([]error, len(specs))

	workers := m.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, spec := range m.Namespaces {
		g.Go(func() error {
			built[i], failed[i] = w.namespace(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Failures: make(map[string]error), ManifestDigest: manifestDigest}
	for i, spec := range m.Namespaces {
		if failed[i] != nil {
			res.Failures[spec.Name] = failed[i]
			log.Warnw("namespace failed", logging.FieldNamespace, spec.Name, "error", failed[i])
			continue
		}
		res.Namespaces = append(res.Namespaces, built[i])
	}

	plan, err := resolver.Resolve(res.Namespaces, groupsOf(m), resolver.Options{Log: log, Failures: res.Failures})
	if err != nil {
		return nil, err
	}
	res.Plan = plan

	out, err := emitter.Emit(plan, res.Namespaces, emitter.Options{Log: log})
	if err != nil {
		return nil, err
	}
	res.Output = out
	if res.RunDigest, err = out.RunDigest(); err != nil {
		return nil, errors.Wrap(err, "digest run")
	}

	res.Duration = time.Since(start)
	log.Infow("run complete",
		logging.FieldCount, len(out.Files),
		"failed", len(res.Failures),
		logging.FieldDuration, res.Duration.Milliseconds())
	return res, nil
}

// PlanGroups checks the group graph of m without reflecting anything. Each
// declared namespace stands in as an empty IR namespace so preloads that
// cross groups still add their edges.
func PlanGroups(m *config.Manifest, log *zap.SugaredLogger) (*resolver.Plan, error) {
	stand := make([]*ir.Namespace, len(m.Namespaces))
	for i, ns := range m.Namespaces {
		stand[i] = ir.NewNamespace(ns.Name, ns.Version, append([]string(nil), ns.Preloads...))
	}
	return resolver.Resolve(stand, groupsOf(m), resolver.Options{Log: logging.OrNop(log)})
}

func groupsOf(m *config.Manifest) []resolver.Group {
	groups := make([]resolver.Group, len(m.Groups))
	for i, gs := range m.Groups {
		groups[i] = resolver.Group{Name: gs.Name, Namespaces: gs.Namespaces, DependsOn: gs.DependsOn}
	}
	return groups
}

func docsSource(m *config.Manifest) docs.Source {
	files := make(map[string]string)
	for _, ns := range m.Namespaces {
		if ns.Docs != "" {
			files[ns.Name] = ns.Docs
		}
	}
	return docs.DirSource{Paths: m.Docs.SearchPaths, Files: files}
}

type worker struct {
	reflector *reflector.Reflector
	detector  *quirks.Detector
	matcher   *docs.Matcher
	manifest  *config.Manifest
	log       *zap.SugaredLogger
}

// namespace produces the IR of one namespace. With a declared version the
// documentation is matched while the namespace is reflected.
func (w *worker) namespace(ctx context.Context, spec config.NamespaceSpec) (*ir.Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		raw   *reflector.Raw
		index *docs.Index
		diags []ir.Diagnostic
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		raw, err = w.reflector.Reflect(ctx, reflector.Request{
			Namespace: spec.Name,
			Overrides: w.manifest.OverridesFor(spec.Name),
		})
		return err
	})
	if spec.Version != "" {
		g.Go(func() error {
			index, diags = w.matcher.Match(ctx, spec.Name, spec.Version)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if index == nil {
		index, diags = w.matcher.Match(ctx, spec.Name, raw.Version)
	}

	report := w.detector.Detect(ctx, raw, quirks.Options{CPrefix: spec.CPrefix})
	ns, err := builder.Build(raw, index, report, builder.Options{Log: w.log})
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		ns.Diagnose(d)
	}

	w.log.Infow("namespace built",
		logging.FieldNamespace, ns.Name,
		"version", ns.Version,
		logging.FieldCount, len(ns.Entities),
		logging.FieldDuration, time.Since(start).Milliseconds())
	return ns, nil
}
