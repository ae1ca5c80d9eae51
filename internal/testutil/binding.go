// Package testutil provides a fake binding layer for pipeline tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/gistub/internal/reflector"
)

// FakeNamespace is the canned state of one namespace.
type FakeNamespace struct {
	Name     string
	Version  string
	Entities []reflector.LowEntity

	// Surface is what Wrapper.Surface returns; nil means "not enumerated".
	Surface *reflector.WrapperSurface

	// Warnings, Faults and Panics are keyed by access path ("Widget" or
	// "Widget.show").
	Warnings map[string][]string
	Faults   map[string]error
	Panics   map[string]string
}

// FakeBinding implements reflector.Binding over canned namespaces.
//
// It mimics process-global activation: a namespace stays active once
// activated, preloads must be active first, and activating the same
// namespace twice is recorded as a violation. It also tracks how many
// activations overlapped in time.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeBinding struct {
	mu         sync.Mutex
	namespaces map[string]*FakeNamespace
	active     map[string]reflector.Handle
	log        []string
	violations []string
	failures   map[string]error
	surfaceErr map[string]error
	accesses   map[string]int

	delay       time.Duration
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

// NewFakeBinding creates a fake with the given namespaces installed.
func NewFakeBinding(namespaces ...*FakeNamespace) *FakeBinding {
	f := &FakeBinding{
		namespaces: make(map[string]*FakeNamespace),
		active:     make(map[string]reflector.Handle),
		failures:   make(map[string]error),
		surfaceErr: make(map[string]error),
		accesses:   make(map[string]int),
	}
	for _, ns := range namespaces {
		f.namespaces[ns.Name] = ns
	}
	return f
}

// FailActivation makes every activation of name fail with err.
func (f *FakeBinding) FailActivation(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = err
}

// FailSurface makes Surface fail for name.
func (f *FakeBinding) FailSurface(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surfaceErr[name] = err
}

// SetActivationDelay holds each activation for d, widening the window in
// which overlapping calls would be observed.
func (f *FakeBinding) SetActivationDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Activate implements reflector.Activator.
func (f *FakeBinding) Activate(ctx context.Context, name, version string, preloads []reflector.Handle) (reflector.Handle, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		prev := f.maxInflight.Load()
		if n <= prev || f.maxInflight.CompareAndSwap(prev, n) {
			break
		}
	}

	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return reflector.Handle{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.active[name]; ok {
		f.violations = append(f.violations, "activated twice: "+name)
		return h, nil
	}
	if err, ok := f.failures[name]; ok {
		return reflector.Handle{}, err
	}
	ns, ok := f.namespaces[name]
	if !ok {
		return reflector.Handle{}, &reflector.ActivationError{
			Code: reflector.ErrCodeNotFound, Namespace: name, Version: version, Message: "typelib not installed",
		}
	}
	if version != "" && version != ns.Version {
		return reflector.Handle{}, &reflector.ActivationError{
			Code: reflector.ErrCodeVersionMismatch, Namespace: name, Version: version,
			Message: fmt.Sprintf("only %s is installed", ns.Version),
		}
	}
	for _, p := range preloads {
		if _, ok := f.active[p.Namespace]; !ok {
			f.violations = append(f.violations, fmt.Sprintf("%s activated before preload %s", name, p.Namespace))
			return reflector.Handle{}, &reflector.ActivationError{
				Code: reflector.ErrCodePreloadInactive, Namespace: name, Version: version,
				Message: "preload " + p.Namespace + " is not active",
			}
		}
	}

	h := reflector.Handle{Namespace: name, Version: ns.Version, ID: fmt.Sprintf("fake:%d", len(f.log)+1)}
	f.active[name] = h
	f.log = append(f.log, name)
	return h, nil
}

// Entities implements reflector.LowLevel.
func (f *FakeBinding) Entities(_ context.Context, h reflector.Handle) ([]reflector.LowEntity, error) {
	ns, err := f.activeNamespace(h)
	if err != nil {
		return nil, err
	}
	return ns.Entities, nil
}

// Surface implements reflector.Wrapper.
func (f *FakeBinding) Surface(_ context.Context, h reflector.Handle) (*reflector.WrapperSurface, error) {
	ns, err := f.activeNamespace(h)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	serr := f.surfaceErr[h.Namespace]
	f.mu.Unlock()
	if serr != nil {
		return nil, serr
	}
	return ns.Surface, nil
}

// Access implements reflector.Wrapper. Paths listed in Panics panic.
func (f *FakeBinding) Access(_ context.Context, h reflector.Handle, path string) (reflector.AccessResult, error) {
	ns, err := f.activeNamespace(h)
	if err != nil {
		return reflector.AccessResult{}, err
	}
	f.mu.Lock()
	f.accesses[h.Namespace+"."+path]++
	f.mu.Unlock()

	if msg, ok := ns.Panics[path]; ok {
		panic(msg)
	}
	if err, ok := ns.Faults[path]; ok {
		return reflector.AccessResult{}, err
	}
	return reflector.AccessResult{Warnings: ns.Warnings[path]}, nil
}

// ActivationLog returns the namespaces in activation order.
func (f *FakeBinding) ActivationLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.log...)
}

// Violations returns every broken activation contract observed.
func (f *FakeBinding) Violations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.violations...)
}

// MaxConcurrentActivations returns the largest number of overlapping
// Activate calls seen.
func (f *FakeBinding) MaxConcurrentActivations() int {
	return int(f.maxInflight.Load())
}

// Accesses returns how often "Namespace.path" was probed.
func (f *FakeBinding) Accesses(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accesses[key]
}

func (f *FakeBinding) activeNamespace(h reflector.Handle) (*FakeNamespace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[h.Namespace]; !ok {
		return nil, fmt.Errorf("namespace %s is not active", h.Namespace)
	}
	return f.namespaces[h.Namespace], nil
}

var _ reflector.Binding = (*FakeBinding)(nil)
