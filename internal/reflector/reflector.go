package reflector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
)

// Reflector reads one namespace from both metadata sources and merges them
// into raw records.
type Reflector struct {
	gate       *Gate
	low        LowLevel
	wrap       Wrapper
	precedence Precedence
	log        *zap.SugaredLogger
}

// New creates a reflector. log may be nil.
func New(gate *Gate, low LowLevel, wrap Wrapper, precedence Precedence, log *zap.SugaredLogger) *Reflector {
	return &Reflector{
		gate:       gate,
		low:        low,
		wrap:       wrap,
		precedence: precedence,
		log:        logging.OrNop(log),
	}
}

// Request names the namespace to reflect and its manifest patches.
type Request struct {
	Namespace string
	Overrides []config.OverrideSpec
}

// Reflect activates the namespace through the gate and merges its two
// sources. Activation and low-level enumeration failures are fatal for
// this namespace only. A failing wrapper degrades to low-level data with a
// warning.
func (r *Reflector) Reflect(ctx context.Context, req Request) (*Raw, error) {
	spec, ok := r.gate.Spec(req.Namespace)
	if !ok {
		return nil, &ActivationError{Code: ErrCodeUndeclared, Namespace: req.Namespace, Message: "namespace is not declared"}
	}

	h, err := r.gate.Activate(ctx, req.Namespace)
	if err != nil {
		return nil, err
	}

	low, err := r.low.Entities(ctx, h)
	if err != nil {
		return nil, errors.Wrapf(err, "enumerate %s", h.Ref())
	}

	raw := &Raw{
		Handle:    h,
		Namespace: spec.Name,
		Version:   h.Version,
		Preloads:  append([]string{}, spec.Preloads...),
	}

	surface, err := r.wrap.Surface(ctx, h)
	if err != nil {
		r.log.Warnw("wrapper surface unavailable", logging.FieldNamespace, spec.Name, "error", err)
		raw.Diagnostics = append(raw.Diagnostics, ir.Warn(ir.DiagProbeFault, spec.Name, "",
			fmt.Sprintf("wrapper surface unavailable, using low-level data only: %v", err)))
		surface = nil
	}

	for _, e := range r.precedence.ExceptionsFor(spec.Name) {
		r.log.Infow("precedence exception",
			logging.FieldNamespace, spec.Name, "kind", e.Kind, "source", e.Source, "reason", e.Reason)
		raw.Diagnostics = append(raw.Diagnostics, ir.Info(ir.DiagPrecedence, spec.Name, "",
			fmt.Sprintf("%s shape taken from %s: %s", e.Kind, e.Source, e.Reason)))
	}

	m := merger{ns: spec.Name, precedence: r.precedence, raw: raw}
	m.merge(low, surface)
	m.applyOverrides(req.Overrides)
	m.reportUnknown()

	r.log.Debugw("reflected namespace",
		logging.FieldNamespace, spec.Name, "version", h.Version, logging.FieldCount, len(raw.Entities))
	return raw, nil
}

type merger struct {
	ns         string
	precedence Precedence
	raw        *Raw
	unknown    map[string][]string // raw kind -> names
}

func (m *merger) merge(low []LowEntity, surface *WrapperSurface) {
	var wrapped map[string]*WrapperEntity
	known := surface != nil && surface.Entities != nil
	if known {
		wrapped = make(map[string]*WrapperEntity, len(surface.Entities))
		for i := range surface.Entities {
			wrapped[surface.Entities[i].Name] = &surface.Entities[i]
		}
	}

	seen := make(map[string]bool, len(low))
	for _, le := range low {
		kind, ok := classify(le.Kind)
		if !ok {
			m.noteUnknown(le.Kind, le.Name)
			continue
		}
		seen[le.Name] = true
		e := m.fromLow(le, kind)
		e.WrapperKnown = known
		if w, ok := wrapped[le.Name]; ok {
			e.Wrapper = true
			m.mergeWrapper(e, w)
		}
		m.raw.Entities = append(m.raw.Entities, e)
	}

	if !known {
		return
	}
	for _, w := range surface.Entities {
		if seen[w.Name] {
			continue
		}
		kind, ok := wrapperKind(w)
		if !ok {
			m.noteUnknown(w.Kind, w.Name)
			continue
		}
		e := &RawEntity{
			Presence:     Presence{Wrapper: true},
			Name:         w.Name,
			Kind:         kind,
			WrapperKnown: true,
			Source:       SourceWrapper,
		}
		m.mergeWrapper(e, &w)
		m.raw.Entities = append(m.raw.Entities, e)
	}
}

func (m *merger) fromLow(le LowEntity, kind ir.EntityKind) *RawEntity {
	e := &RawEntity{
		Presence:   Presence{LowLevel: true},
		Name:       le.Name,
		Kind:       kind,
		Identity:   le.Identity,
		Deprecated: le.Deprecated,
		Source:     m.precedence.For(m.ns, kind),
		Bases:      append([]string{}, le.Bases...),
		Interfaces: append([]string{}, le.Interfaces...),
		Throws:     le.Throws,
		Values:     le.Values,
		ConstType:  le.Type,
		ConstValue: le.Value,
		Target:     le.Target,
	}
	if kind == ir.KindFunction || kind == ir.KindCallback {
		e.Role = ir.RoleFunction
		e.Signatures = []RawSignature{lowSignature(le)}
	}

	for _, lm := range le.Methods {
		role, ok := classifyRole(lm.Role)
		if !ok {
			m.noteUnknown("member:"+lm.Role, le.Name+"."+lm.Name)
			continue
		}
		mk := memberKind(role)
		e.Methods = append(e.Methods, &RawEntity{
			Presence:   Presence{LowLevel: true},
			Name:       lm.Name,
			Kind:       mk,
			Identity:   lm.Identity,
			Deprecated: lm.Deprecated,
			Source:     m.precedence.For(m.ns, mk),
			Role:       role,
			Signatures: []RawSignature{lowSignature(lm)},
			Throws:     lm.Throws,
		})
	}
	for _, p := range le.Properties {
		e.Properties = append(e.Properties, &RawProperty{LowProperty: p, Presence: Presence{LowLevel: true}})
	}
	for _, f := range le.Fields {
		e.Fields = append(e.Fields, &RawField{LowField: f, Presence: Presence{LowLevel: true}})
	}
	for _, s := range le.Signals {
		e.Signals = append(e.Signals, &RawSignal{LowSignal: s, Presence: Presence{LowLevel: true}})
	}
	return e
}

// mergeWrapper folds the wrapper view of one entity into e. Structural
// fields change only where the wrapper is the configured source; members
// the low level does not know are appended with wrapper presence only.
func (m *merger) mergeWrapper(e *RawEntity, w *WrapperEntity) {
	if w.Doc != "" {
		e.Doc = w.Doc
	}
	if e.Source == SourceWrapper && len(w.Bases) > 0 {
		e.Bases = append([]string{}, w.Bases...)
		e.Interfaces = nil
	}
	applySignatures(e, w.Signatures)

	if w.Members == nil {
		return
	}
	e.MembersKnown = true
	for _, wm := range w.Members {
		m.mergeMember(e, wm)
	}
}

func (m *merger) mergeMember(e *RawEntity, wm WrapperMember) {
	switch wm.Kind {
	case "property":
		for _, p := range e.Properties {
			if p.Name == wm.Name {
				p.Wrapper = true
				if wm.Doc != "" {
					p.Doc = wm.Doc
				}
				return
			}
		}
		e.Properties = append(e.Properties, &RawProperty{
			LowProperty: LowProperty{Name: wm.Name, Type: wm.Type, Readable: true, Writable: true},
			Presence:    Presence{Wrapper: true},
			Doc:         wm.Doc,
		})
		return
	case "field":
		for _, f := range e.Fields {
			if f.Name == wm.Name {
				f.Wrapper = true
				if wm.Doc != "" {
					f.Doc = wm.Doc
				}
				return
			}
		}
		e.Fields = append(e.Fields, &RawField{
			LowField: LowField{Name: wm.Name, Type: wm.Type, Readable: true, Writable: true},
			Presence: Presence{Wrapper: true},
			Doc:      wm.Doc,
		})
		return
	case "signal":
		for _, s := range e.Signals {
			if s.Name == wm.Name {
				s.Wrapper = true
				return
			}
		}
		e.Signals = append(e.Signals, &RawSignal{LowSignal: LowSignal{Name: wm.Name}, Presence: Presence{Wrapper: true}})
		return
	}

	role, ok := wrapperRole(wm.Kind)
	if !ok {
		m.noteUnknown("member:"+wm.Kind, e.Name+"."+wm.Name)
		return
	}
	if existing := e.Method(wm.Name); existing != nil {
		existing.Wrapper = true
		if wm.Doc != "" {
			existing.Doc = wm.Doc
		}
		applySignatures(existing, wm.Signatures)
		return
	}
	mk := memberKind(role)
	added := &RawEntity{
		Presence: Presence{Wrapper: true},
		Name:     wm.Name,
		Kind:     mk,
		Source:   SourceWrapper,
		Role:     role,
		Doc:      wm.Doc,
	}
	applySignatures(added, wm.Signatures)
	if len(added.Signatures) == 0 {
		added.Signatures = []RawSignature{{Origin: SourceWrapper}}
	}
	e.Methods = append(e.Methods, added)
}

// applySignatures merges wrapper call shapes into a callable record:
//   - a wrapper-only callable takes them as they are;
//   - wrapper precedence replaces the low-level shape;
//   - low-level precedence keeps its shape first and appends other
//     wrapper shapes as extra overloads.
func applySignatures(e *RawEntity, sigs []WrapperSignature) {
	if len(sigs) == 0 {
		return
	}
	converted := make([]RawSignature, len(sigs))
	for i, s := range sigs {
		converted[i] = wrapperSignature(s)
	}
	switch {
	case !e.LowLevel || len(e.Signatures) == 0 || e.Source == SourceWrapper:
		e.Signatures = converted
	default:
		have := make(map[string]bool, len(e.Signatures))
		for _, s := range e.Signatures {
			have[shapeKey(s)] = true
		}
		for _, s := range converted {
			if k := shapeKey(s); !have[k] {
				have[k] = true
				e.Signatures = append(e.Signatures, s)
			}
		}
	}
}

func (m *merger) applyOverrides(overrides []config.OverrideSpec) {
	for _, o := range overrides {
		e := m.raw.Entity(o.Entity)
		if e == nil {
			m.raw.Diagnostics = append(m.raw.Diagnostics, ir.Warn(ir.DiagUnknownMember, m.ns, o.Entity,
				"override target not found"))
			continue
		}
		for _, name := range o.Hide {
			if !hideMember(e, name) {
				m.raw.Diagnostics = append(m.raw.Diagnostics, ir.Warn(ir.DiagUnknownMember, m.ns, o.Entity,
					fmt.Sprintf("override hides unknown member %q", name)))
			}
		}
		for _, add := range o.Add {
			m.addMember(e, add)
		}
	}
}

func hideMember(e *RawEntity, name string) bool {
	found := false
	for _, me := range e.Methods {
		if me.Name == name {
			me.Hidden, found = true, true
		}
	}
	for _, p := range e.Properties {
		if p.Name == name {
			p.Hidden, found = true, true
		}
	}
	for _, f := range e.Fields {
		if f.Name == name {
			f.Hidden, found = true, true
		}
	}
	return found
}

func (m *merger) addMember(e *RawEntity, spec config.MemberSpec) {
	if spec.Kind == "field" {
		e.Fields = append(e.Fields, &RawField{
			LowField: LowField{Name: spec.Name, Type: spec.Type, Readable: true, Writable: true},
			Presence: Presence{Wrapper: true},
			Doc:      spec.Doc,
		})
		return
	}
	role, ok := wrapperRole(spec.Kind)
	if !ok {
		m.noteUnknown("member:"+spec.Kind, e.Name+"."+spec.Name)
		return
	}
	sig := RawSignature{Origin: SourceWrapper}
	for _, p := range spec.Params {
		sig.Params = append(sig.Params, LowParam{
			Name:     p.Name,
			Type:     p.Type,
			Default:  p.Default,
			Optional: p.Default != "",
			Nullable: p.Default == "None",
		})
	}
	if spec.Returns != "" {
		sig.Return = &LowReturn{Type: spec.Returns}
	}

	if existing := e.Method(spec.Name); existing != nil {
		existing.Wrapper = true
		existing.Hidden = false
		existing.Signatures = append(existing.Signatures, sig)
		return
	}
	e.Methods = append(e.Methods, &RawEntity{
		Presence:   Presence{Wrapper: true},
		Name:       spec.Name,
		Kind:       memberKind(role),
		Source:     SourceWrapper,
		Role:       role,
		Doc:        spec.Doc,
		Signatures: []RawSignature{sig},
	})
}

func (m *merger) noteUnknown(kind, name string) {
	if m.unknown == nil {
		m.unknown = make(map[string][]string)
	}
	if kind == "" {
		kind = "<empty>"
	}
	m.unknown[kind] = append(m.unknown[kind], name)
}

// reportUnknown emits one summary diagnostic per unrecognized kind.
func (m *merger) reportUnknown() {
	kinds := make([]string, 0, len(m.unknown))
	for k := range m.unknown {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		names := m.unknown[k]
		m.raw.Diagnostics = append(m.raw.Diagnostics, ir.Warn(ir.DiagUnknownMember, m.ns, "",
			fmt.Sprintf("skipped %d entries of unknown kind %q: %s", len(names), k, strings.Join(names, ", "))))
	}
}

func lowSignature(le LowEntity) RawSignature {
	s := RawSignature{Params: append([]LowParam{}, le.Params...), Origin: SourceLowLevel}
	if le.Return != nil {
		ret := *le.Return
		s.Return = &ret
	}
	return s
}

func wrapperSignature(ws WrapperSignature) RawSignature {
	s := RawSignature{Params: append([]LowParam{}, ws.Params...), Origin: SourceWrapper}
	if ws.Returns != "" {
		s.Return = &LowReturn{Type: ws.Returns}
	}
	return s
}

// shapeKey identifies a call shape by its input types and return.
func shapeKey(s RawSignature) string {
	var b strings.Builder
	for _, p := range s.Params {
		if p.Direction == "out" || p.ArrayLength {
			continue
		}
		b.WriteString(p.Type)
		b.WriteByte(',')
	}
	b.WriteString("->")
	if s.Return != nil {
		b.WriteString(s.Return.Type)
	}
	return b.String()
}

// classify maps a low-level kind name to an entity kind.
func classify(kind string) (ir.EntityKind, bool) {
	switch kind {
	case "class", "object", "struct", "record", "union", "boxed":
		return ir.KindClass, true
	case "interface":
		return ir.KindInterface, true
	case "function":
		return ir.KindFunction, true
	case "callback":
		return ir.KindCallback, true
	case "constant":
		return ir.KindConstant, true
	case "enum":
		return ir.KindEnum, true
	case "flags", "bitfield":
		return ir.KindFlags, true
	case "alias":
		return ir.KindAlias, true
	}
	return "", false
}

func wrapperKind(w WrapperEntity) (ir.EntityKind, bool) {
	if w.Kind != "" {
		return classify(w.Kind)
	}
	switch {
	case len(w.Signatures) > 0:
		return ir.KindFunction, true
	case w.Members != nil:
		return ir.KindClass, true
	}
	return "", false
}

func classifyRole(role string) (ir.Role, bool) {
	switch role {
	case "", "method":
		return ir.RoleMethod, true
	case "constructor":
		return ir.RoleConstructor, true
	case "static", "function":
		return ir.RoleStatic, true
	case "getter":
		return ir.RoleGetter, true
	}
	return "", false
}

func wrapperRole(kind string) (ir.Role, bool) {
	return classifyRole(kind)
}

func memberKind(role ir.Role) ir.EntityKind {
	if role == ir.RoleStatic {
		return ir.KindFunction
	}
	return ir.KindMethod
}
