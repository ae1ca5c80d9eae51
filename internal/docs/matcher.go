// Package docs matches GIR documentation to reflected entities.
//
// The GIR file of a namespace is an auxiliary source: a missing file means
// no docs, and an unparseable one degrades to no docs plus a warning. It
// never fails a namespace.
package docs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
)

// Source opens the GIR document of a namespace version. It returns an
// error matching fs.ErrNotExist when there is none.
type Source interface {
	Open(ctx context.Context, namespace, version string) (io.ReadCloser, string, error)
}

// DirSource looks for "<Namespace>-<Version>.gir" in each search path in
// order. Files pins explicit paths per namespace.
type DirSource struct {
	Paths []string
	Files map[string]string
}

// Open implements Source.
func (d DirSource) Open(_ context.Context, namespace, version string) (io.ReadCloser, string, error) {
	if p, ok := d.Files[namespace]; ok && p != "" {
		f, err := os.Open(p)
		return f, p, err
	}
	name := namespace + "-" + version + ".gir"
	for _, dir := range d.Paths {
		p := filepath.Join(dir, name)
		f, err := os.Open(p)
		if err == nil {
			return f, p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, p, err
		}
	}
	return nil, "", fs.ErrNotExist
}

// FSSource serves GIR files from the root of an fs.FS.
type FSSource struct {
	FS fs.FS
}

// Open implements Source.
func (s FSSource) Open(_ context.Context, namespace, version string) (io.ReadCloser, string, error) {
	name := namespace + "-" + version + ".gir"
	f, err := s.FS.Open(name)
	return f, name, err
}

// Matcher reads and indexes documentation.
type Matcher struct {
	src Source
	log *zap.SugaredLogger
}

// NewMatcher creates a matcher over src. log may be nil.
func NewMatcher(src Source, log *zap.SugaredLogger) *Matcher {
	return &Matcher{src: src, log: logging.OrNop(log)}
}

// Match returns the documentation index of a namespace version. The index
// is never nil; failures are reported as diagnostics.
func (m *Matcher) Match(ctx context.Context, namespace, version string) (*Index, []ir.Diagnostic) {
	empty := NewIndex(namespace)
	if err := ctx.Err(); err != nil {
		return empty, nil
	}

	rc, path, err := m.src.Open(ctx, namespace, version)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Debugw("no GIR documentation", logging.FieldNamespace, namespace, "version", version)
			return empty, nil
		}
		return empty, m.degrade(namespace, path, err)
	}
	defer rc.Close()

	ix, err := Parse(rc, namespace)
	if err != nil {
		return empty, m.degrade(namespace, path, err)
	}
	m.log.Debugw("indexed GIR documentation",
		logging.FieldNamespace, namespace, logging.FieldPath, path, logging.FieldCount, ix.Len())
	return ix, nil
}

func (m *Matcher) degrade(namespace, path string, err error) []ir.Diagnostic {
	m.log.Warnw("GIR documentation unusable", logging.FieldNamespace, namespace, logging.FieldPath, path, "error", err)
	return []ir.Diagnostic{ir.Warn(ir.DiagDocParse, namespace, "", fmt.Sprintf("%s: %v", path, err))}
}
