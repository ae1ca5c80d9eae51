package reflector

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/gistub/internal/graph"
)

// Spec declares one namespace the gate may activate.
type Spec struct {
	Name     string
	Version  string
	Preloads []string
}

// Gate owns all access to the Activator. Activation is process-global
// state, so the gate:
//   - activates every preload before its dependent, on demand;
//   - serializes calls into the Activator (single writer);
//   - activates each namespace at most once and caches the outcome.
//
// Workers may call Activate concurrently for any namespace.
type Gate struct {
	act    Activator
	specs  map[string]Spec
	cyclic map[string]bool

	writer sync.Mutex // held around every Activator call

	mu    sync.Mutex
	state map[string]*activation
	log   []string // activation order, for audit
}

type activation struct {
	done   chan struct{}
	handle Handle
	err    error
}

// NewGate creates a gate over act for the declared namespaces. Namespaces
// on a preload cycle are known up front and always fail with
// ErrCodePreloadCycle, so no worker ever waits on itself.
func NewGate(act Activator, specs []Spec) *Gate {
	g := &Gate{
		act:   act,
		specs: make(map[string]Spec, len(specs)),
		state: make(map[string]*activation),
	}
	deps := graph.New()
	for _, s := range specs {
		g.specs[s.Name] = s
		deps.AddNode(s.Name)
	}
	for _, s := range specs {
		for _, p := range s.Preloads {
			deps.AddEdge(s.Name, p)
		}
	}
	g.cyclic = deps.Cyclic()
	return g
}

// Spec returns the declaration of a namespace.
func (g *Gate) Spec(name string) (Spec, bool) {
	s, ok := g.specs[name]
	return s, ok
}

// Activate returns the handle of name, activating its preloads and then
// name itself if this is the first request. Concurrent callers for the same
// namespace wait for the single in-flight activation.
func (g *Gate) Activate(ctx context.Context, name string) (Handle, error) {
	spec, ok := g.specs[name]
	if !ok {
		return Handle{}, &ActivationError{Code: ErrCodeUndeclared, Namespace: name, Message: "namespace is not declared"}
	}
	if g.cyclic[name] {
		return Handle{}, &ActivationError{
			Code: ErrCodePreloadCycle, Namespace: name, Version: spec.Version,
			Message: "namespace sits on a preload cycle",
		}
	}

	a, owner := g.claim(name)
	if !owner {
		select {
		case <-a.done:
			return a.handle, a.err
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		}
	}
	defer close(a.done)

	preloads := make([]Handle, 0, len(spec.Preloads))
	for _, p := range spec.Preloads {
		h, err := g.Activate(ctx, p)
		if err != nil {
			a.err = &ActivationError{
				Code: ErrCodePreloadFailed, Namespace: name, Version: spec.Version,
				Message: fmt.Sprintf("preload %s failed", p), Err: err,
			}
			return Handle{}, a.err
		}
		preloads = append(preloads, h)
	}

	a.handle, a.err = g.call(ctx, spec, preloads)
	return a.handle, a.err
}

// Activated returns the namespaces activated successfully, in order.
func (g *Gate) Activated() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.log))
	copy(out, g.log)
	return out
}

func (g *Gate) claim(name string) (*activation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.state[name]; ok {
		return a, false
	}
	a := &activation{done: make(chan struct{})}
	g.state[name] = a
	return a, true
}

func (g *Gate) call(ctx context.Context, spec Spec, preloads []Handle) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	g.writer.Lock()
	h, err := g.act.Activate(ctx, spec.Name, spec.Version, preloads)
	g.writer.Unlock()

	if err != nil {
		if IsActivationError(err) {
			return Handle{}, err
		}
		return Handle{}, &ActivationError{
			Code: ErrCodeBinding, Namespace: spec.Name, Version: spec.Version,
			Message: "binding layer refused activation", Err: err,
		}
	}

	g.mu.Lock()
	g.log = append(g.log, spec.Name)
	g.mu.Unlock()
	return h, nil
}
