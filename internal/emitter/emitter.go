// Package emitter renders resolved IR as .pyi stub modules, one file per
// namespace, laid out by package group.
package emitter

import (
	"bytes"
	"embed"
	"path"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
	"github.com/roach88/gistub/internal/resolver"
)

//go:embed templates/module.pyi.tmpl
var templates embed.FS

var moduleTemplate = template.Must(
	template.New("module.pyi.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templates, "templates/module.pyi.tmpl"),
)

// File is one emitted stub module.
type File struct {
	Group     string
	Namespace string
	Path      string // slash separated, relative to the output root
	Text      []byte
	Digest    string
}

// Output is the emitted stub tree in plan order.
type Output struct {
	Files []File
}

// Digests maps each file path to its digest.
func (o *Output) Digests() map[string]string {
	m := make(map[string]string, len(o.Files))
	for _, f := range o.Files {
		m[f.Path] = f.Digest
	}
	return m
}

// RunDigest is the digest of the whole tree.
func (o *Output) RunDigest() (string, error) {
	return ir.RunDigest(o.Digests())
}

// Options tune an emit.
type Options struct {
	Log *zap.SugaredLogger
}

// FilePath is the output path of a namespace inside a group.
func FilePath(group, namespace string) string {
	return path.Join(group, "gi-stubs", "repository", namespace+".pyi")
}

// Emit renders every planned namespace in group order. Every name in the
// plan must have IR in namespaces.
func Emit(plan *resolver.Plan, namespaces []*ir.Namespace, opts Options) (*Output, error) {
	log := logging.OrNop(opts.Log)

	byName := make(map[string]*ir.Namespace, len(namespaces))
	for _, ns := range namespaces {
		byName[ns.Name] = ns
	}

	out := &Output{}
	for _, g := range plan.Groups {
		for _, name := range g.Namespaces {
			ns, ok := byName[name]
			if !ok {
				return nil, errors.AssertionFailedf("planned namespace %q has no IR", name)
			}
			text, err := Render(ns)
			if err != nil {
				return nil, errors.Wrapf(err, "emit %s", name)
			}
			p := FilePath(g.Name, ns.Name)
			out.Files = append(out.Files, File{
				Group:     g.Name,
				Namespace: ns.Name,
				Path:      p,
				Text:      text,
				Digest:    ir.OutputDigest(p, text),
			})
			log.Debugw("emitted module",
				logging.FieldGroup, g.Name,
				logging.FieldNamespace, ns.Name,
				logging.FieldPath, p,
				logging.FieldCount, len(ns.Entities))
		}
	}
	return out, nil
}

type moduleData struct {
	Ref        string
	Imports    []string
	Blocks     [][]string
	Unresolved []string
}

// Render renders one namespace as module text.
func Render(ns *ir.Namespace) ([]byte, error) {
	r := &renderer{ns: ns, s: newScope(ns.Name)}

	data := moduleData{Ref: ns.Ref()}
	for _, e := range ns.Entities {
		if block := r.entity(e); len(block) > 0 {
			data.Blocks = append(data.Blocks, block)
		}
	}
	data.Imports = r.s.imports()
	data.Unresolved = r.s.unresolvedHints()

	var buf bytes.Buffer
	if err := moduleTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "execute module template")
	}
	text := bytes.TrimRight(buf.Bytes(), "\n")
	return append(text, '\n'), nil
}
