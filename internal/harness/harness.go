package harness

import (
	"bytes"
	"context"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/docs"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/logging"
	"github.com/roach88/gistub/internal/pipeline"
	"github.com/roach88/gistub/internal/snapshot"
)

// File is one emitted module.
type File struct {
	Path string
	Text string
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	// Errors holds one message per failed assertion.
	Errors []string

	// Files is the emitted tree in emission order.
	Files []File

	Diagnostics []ir.Diagnostic

	// RunError is the run-wide pipeline error, if any.
	RunError error

	namespaces []*ir.Namespace
}

func (r *Result) fail(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// File returns the emitted text at path.
func (r *Result) File(path string) (string, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f.Text, true
		}
	}
	return "", false
}

// Options tune a scenario run.
type Options struct {
	Log *zap.SugaredLogger
}

// Run executes a scenario against an in-memory snapshot of its dumps. A
// scenario error (bad dump) is returned; a pipeline error is captured in
// the result so run_error assertions can check it.
func Run(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	log := logging.OrNop(opts.Log).With("scenario", s.Name)

	dumps := fstest.MapFS{}
	for _, d := range s.Snapshots {
		var buf bytes.Buffer
		if err := snapshot.Encode(&buf, &d); err != nil {
			return nil, errors.Wrapf(err, "scenario %s: snapshot %s-%s", s.Name, d.Namespace, d.Version)
		}
		dumps[d.Namespace+"-"+d.Version+snapshot.Ext] = &fstest.MapFile{Data: buf.Bytes()}
	}
	gir := fstest.MapFS{}
	for name, text := range s.Docs {
		gir[name] = &fstest.MapFile{Data: []byte(text)}
	}

	manifest := s.Manifest
	res := &Result{Pass: true}
	out, err := pipeline.Run(ctx, pipeline.Config{
		Manifest: &manifest,
		Binding:  snapshot.New(dumps),
		Docs:     docs.FSSource{FS: gir},
		Log:      log,
	})
	if err != nil {
		res.RunError = err
	} else {
		for _, f := range out.Output.Files {
			res.Files = append(res.Files, File{Path: f.Path, Text: string(f.Text)})
		}
		res.Diagnostics = out.Diagnostics()
		res.namespaces = out.Namespaces
	}

	for _, a := range s.Assertions {
		if err := evaluate(res, a); err != nil {
			res.fail(err.Error())
		}
	}
	if res.RunError != nil && !expectsRunError(s) {
		res.fail("run failed: " + res.RunError.Error())
	}
	return res, nil
}

func expectsRunError(s *Scenario) bool {
	for _, a := range s.Assertions {
		if a.Type == AssertRunError {
			return true
		}
	}
	return false
}

// Tree renders the emitted files as one document for golden comparison.
func (r *Result) Tree() []byte {
	var buf bytes.Buffer
	for _, f := range r.Files {
		buf.WriteString("=== " + f.Path + "\n")
		buf.WriteString(f.Text)
	}
	if r.RunError != nil {
		buf.WriteString("=== error\n" + r.RunError.Error() + "\n")
	}
	return buf.Bytes()
}
