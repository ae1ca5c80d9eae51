// Package quirks observes binding-layer behavior that static metadata does
// not show: deprecation warnings raised on access, the surface difference
// between the wrapper and the low level, and names that share one
// underlying type.
package quirks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
	"github.com/roach88/gistub/internal/reflector"
)

// Detector annotates raw reflector output.
type Detector struct {
	wrap reflector.Wrapper
	log  *zap.SugaredLogger
}

// NewDetector creates a detector probing through wrap. log may be nil.
func NewDetector(wrap reflector.Wrapper, log *zap.SugaredLogger) *Detector {
	return &Detector{wrap: wrap, log: logging.OrNop(log)}
}

// Options tune the detector per namespace.
type Options struct {
	// CPrefix is the C identifier prefix of the namespace ("G" for GLib).
	CPrefix string
}

// Detect runs the deprecation, surface diff and duplicate checks over raw.
// It never fails: a probe fault is recorded on the entity and the run goes
// on.
func (d *Detector) Detect(ctx context.Context, raw *reflector.Raw, opts Options) *Report {
	r := NewReport(raw.Namespace)

	for _, e := range raw.Entities {
		r.set(entityKey(e.Name), func(a *Annotation) { a.Tag = surfaceTag(e.WrapperKnown, e.Presence) })
		if r.Entity(e.Name).Hidden() {
			continue
		}

		res, err := d.probe(ctx, raw.Handle, e.Name)
		if err != nil {
			d.fault(r, raw.Namespace, entityKey(e.Name), e.Name, err)
			continue
		}
		if dep := deprecation(res.Warnings, e.Deprecated); dep != nil {
			r.set(entityKey(e.Name), func(a *Annotation) { a.Deprecation = dep })
		}

		d.members(ctx, r, raw, e)
	}

	d.fold(r, raw, opts)
	return r
}

func (d *Detector) members(ctx context.Context, r *Report, raw *reflector.Raw, e *reflector.RawEntity) {
	for _, m := range e.Methods {
		key := methodKey(e.Name, m.Name)
		tag := surfaceTag(e.MembersKnown, m.Presence)
		r.set(key, func(a *Annotation) { a.Tag = tag })
		if tag == TagBindingHidden {
			continue
		}
		res, err := d.probe(ctx, raw.Handle, key)
		if err != nil {
			d.fault(r, raw.Namespace, key, key, err)
			continue
		}
		if dep := deprecation(res.Warnings, m.Deprecated); dep != nil {
			r.set(key, func(a *Annotation) { a.Deprecation = dep })
		}
	}

	for _, p := range e.Properties {
		tag := surfaceTag(e.MembersKnown, p.Presence)
		dep := deprecation(nil, p.Deprecated)
		r.set(propertyKey(e.Name, p.Name), func(a *Annotation) { a.Tag, a.Deprecation = tag, dep })
	}

	for _, s := range e.Signals {
		tag := surfaceTag(e.MembersKnown, s.Presence)
		r.set(signalKey(e.Name, s.Name), func(a *Annotation) { a.Tag = tag })
	}

	for _, f := range e.Fields {
		tag := surfaceTag(e.MembersKnown, f.Presence)
		dep := deprecation(nil, f.Deprecated)
		r.set(fieldKey(e.Name, f.Name), func(a *Annotation) { a.Tag, a.Deprecation = tag, dep })
	}
}

// probe touches one attribute. A panic inside the wrapper is a fault like
// any returned error.
func (d *Detector) probe(ctx context.Context, h reflector.Handle, path string) (res reflector.AccessResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf("probe panicked: %v", p)
		}
	}()
	return d.wrap.Access(ctx, h, path)
}

func (d *Detector) fault(r *Report, namespace, key, entity string, err error) {
	d.log.Warnw("quirk probe failed", logging.FieldNamespace, namespace, logging.FieldEntity, entity, "error", err)
	r.set(key, func(a *Annotation) { a.Fault = err.Error() })
	r.Diagnostics = append(r.Diagnostics, ir.Warn(ir.DiagProbeFault, namespace, entity,
		fmt.Sprintf("probe failed, keeping raw metadata only: %v", err)))
}

// surfaceTag classifies an entity or member. Without a wrapper
// enumeration of the enclosing scope only override hides count.
func surfaceTag(known bool, p reflector.Presence) Tag {
	switch {
	case p.Hidden:
		return TagBindingHidden
	case p.Wrapper && !p.LowLevel:
		return TagBindingAdded
	case known && p.LowLevel && !p.Wrapper:
		return TagBindingHidden
	}
	return ""
}

var (
	reUseInstead = regexp.MustCompile("(?i)\\buse\\s+[`'\"]?([A-Za-z_][\\w.]*(?:\\(\\))?)[`'\"]?\\s+instead")
	rePleaseUse  = regexp.MustCompile("(?i)\\bplease\\s+use\\s+[`'\"]?([A-Za-z_][\\w.]*(?:\\(\\))?)")
)

// deprecation builds the marker from captured warnings, falling back to
// the low-level deprecated flag.
func deprecation(warnings []string, lowFlag bool) *ir.Deprecation {
	var parts []string
	for _, w := range warnings {
		if w = strings.TrimSpace(w); w != "" {
			parts = append(parts, strings.TrimSuffix(w, "."))
		}
	}
	if len(parts) > 0 {
		msg := strings.Join(parts, ". ")
		return &ir.Deprecation{Message: msg, Replacement: Replacement(msg), Source: "runtime"}
	}
	if lowFlag {
		return &ir.Deprecation{Message: "deprecated", Source: "lowlevel"}
	}
	return nil
}

// Replacement extracts the suggested replacement from a deprecation
// message, or "".
func Replacement(msg string) string {
	for _, re := range []*regexp.Regexp{reUseInstead, rePleaseUse} {
		if m := re.FindStringSubmatch(msg); m != nil {
			return strings.TrimSuffix(m[1], ".")
		}
	}
	return ""
}
