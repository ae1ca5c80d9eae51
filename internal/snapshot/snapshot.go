// Package snapshot serves recorded probe dumps as a binding layer.
//
// A probe script running inside a live binding-layer process writes one
// YAML dump per namespace version, named "<Name>-<Version>.yaml". The
// Service replays them behind the reflector interfaces and enforces the
// activation rules of the real layer: dependencies first, one version per
// namespace per process, activation is permanent.
package snapshot

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/reflector"
)

// Ext is the dump file extension.
const Ext = ".yaml"

// Service implements reflector.Binding over a directory of dumps.
type Service struct {
	fsys fs.FS

	mu     sync.Mutex
	active map[string]*loaded
	seq    int
}

type loaded struct {
	handle reflector.Handle
	dump   *Dump
}

// Open serves the dumps in dir.
func Open(dir string) (*Service, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot dir")
	}
	if !info.IsDir() {
		return nil, errors.Newf("snapshot path %s is not a directory", dir)
	}
	return New(os.DirFS(dir)), nil
}

// New serves the dumps at the root of fsys.
func New(fsys fs.FS) *Service {
	return &Service{fsys: fsys, active: make(map[string]*loaded)}
}

// Versions lists the versions of name present, highest first.
func (s *Service) Versions(name string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "list snapshot dir")
	}
	type candidate struct {
		raw string
		v   *semver.Version
	}
	var found []candidate
	prefix := name + "-"
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, Ext) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(n, prefix), Ext)
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		found = append(found, candidate{raw: raw, v: v})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].v.GreaterThan(found[j].v) })
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.raw
	}
	return out, nil
}

// Activate implements reflector.Activator. An empty version selects the
// highest recorded version.
func (s *Service) Activate(_ context.Context, name, version string, preloads []reflector.Handle) (reflector.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.active[name]; ok {
		if version != "" && !sameVersion(version, l.handle.Version) {
			return reflector.Handle{}, &reflector.ActivationError{
				Code: reflector.ErrCodeVersionMismatch, Namespace: name, Version: version,
				Message: "already active at " + l.handle.Version,
			}
		}
		return l.handle, nil
	}

	versions, err := s.Versions(name)
	if err != nil {
		return reflector.Handle{}, err
	}
	if len(versions) == 0 {
		return reflector.Handle{}, &reflector.ActivationError{
			Code: reflector.ErrCodeNotFound, Namespace: name, Version: version, Message: "no probe dump recorded",
		}
	}
	chosen := versions[0]
	if version != "" {
		chosen = ""
		for _, v := range versions {
			if sameVersion(version, v) {
				chosen = v
				break
			}
		}
		if chosen == "" {
			return reflector.Handle{}, &reflector.ActivationError{
				Code: reflector.ErrCodeVersionMismatch, Namespace: name, Version: version,
				Message: "available: " + strings.Join(versions, ", "),
			}
		}
	}

	dump, err := s.read(name + "-" + chosen + Ext)
	if err != nil {
		return reflector.Handle{}, &reflector.ActivationError{
			Code: reflector.ErrCodeBinding, Namespace: name, Version: chosen, Message: "unreadable probe dump", Err: err,
		}
	}

	for _, p := range preloads {
		if _, ok := s.active[p.Namespace]; !ok {
			return reflector.Handle{}, &reflector.ActivationError{
				Code: reflector.ErrCodePreloadInactive, Namespace: name, Version: chosen,
				Message: "preload " + p.Namespace + " is not active",
			}
		}
	}
	for _, req := range dump.Requires {
		if _, ok := s.active[req]; !ok {
			return reflector.Handle{}, &reflector.ActivationError{
				Code: reflector.ErrCodePreloadInactive, Namespace: name, Version: chosen,
				Message: fmt.Sprintf("requires %s, which is not active", req),
			}
		}
	}

	s.seq++
	h := reflector.Handle{Namespace: name, Version: chosen, ID: fmt.Sprintf("snapshot:%d", s.seq)}
	s.active[name] = &loaded{handle: h, dump: dump}
	return h, nil
}

// Entities implements reflector.LowLevel.
func (s *Service) Entities(_ context.Context, h reflector.Handle) ([]reflector.LowEntity, error) {
	l, err := s.loaded(h)
	if err != nil {
		return nil, err
	}
	return l.dump.Entities, nil
}

// Surface implements reflector.Wrapper.
func (s *Service) Surface(_ context.Context, h reflector.Handle) (*reflector.WrapperSurface, error) {
	l, err := s.loaded(h)
	if err != nil {
		return nil, err
	}
	return l.dump.Surface, nil
}

// Access implements reflector.Wrapper by replaying the recorded outcome.
func (s *Service) Access(_ context.Context, h reflector.Handle, attr string) (reflector.AccessResult, error) {
	l, err := s.loaded(h)
	if err != nil {
		return reflector.AccessResult{}, err
	}
	if msg, ok := l.dump.Access.Faults[attr]; ok {
		return reflector.AccessResult{}, errors.Newf("probe of %s.%s failed: %s", h.Namespace, attr, msg)
	}
	return reflector.AccessResult{Warnings: l.dump.Access.Warnings[attr]}, nil
}

func (s *Service) loaded(h reflector.Handle) (*loaded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.active[h.Namespace]
	if !ok || l.handle.ID != h.ID {
		return nil, errors.Newf("namespace %s is not active", h.Ref())
	}
	return l, nil
}

func (s *Service) read(name string) (*Dump, error) {
	f, err := s.fsys.Open(path.Clean(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return d, nil
}

// sameVersion compares versions semantically, so "1" matches "1.0".
func sameVersion(a, b string) bool {
	if a == b {
		return true
	}
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return va.Equal(vb)
}

var _ reflector.Binding = (*Service)(nil)
