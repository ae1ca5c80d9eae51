package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/pipeline"
	"github.com/roach88/gistub/internal/snapshot"
	"github.com/roach88/gistub/internal/store"
)

// loadManifest reads a manifest, reporting failures through f.
func loadManifest(f *OutputFormatter, path string) (*config.Manifest, error) {
	m, err := config.Load(path)
	if err == nil {
		return m, nil
	}
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return nil, f.Fail(WrapExitError(ExitFailure, "manifest is invalid", err), ErrCodeManifest, "manifest is invalid", ve.Problems)
	}
	return nil, f.Fail(WrapExitError(ExitCommandError, "failed to load manifest", err), ErrCodeManifest, err.Error(), nil)
}

// snapshotDir picks the flag over the manifest setting.
func snapshotDir(m *config.Manifest, override string) string {
	if override != "" {
		return override
	}
	return m.SnapshotDir
}

// generateOnce runs the pipeline over a fresh snapshot service. Activation
// is permanent per service, so every run needs its own.
func generateOnce(ctx context.Context, m *config.Manifest, dir string, log *zap.SugaredLogger) (*pipeline.Result, error) {
	if dir == "" {
		return nil, errors.WithHint(errors.New("no snapshot directory"), "set snapshot_dir in the manifest or pass --snapshots")
	}
	binding, err := snapshot.Open(dir)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, pipeline.Config{Manifest: m, Binding: binding, Log: log})
}

// writeTree writes every emitted file under root.
func writeTree(root string, res *pipeline.Result) error {
	for _, f := range res.Output.Files {
		p := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return errors.Wrapf(err, "create %s", filepath.Dir(p))
		}
		if err := os.WriteFile(p, f.Text, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", p)
		}
	}
	return nil
}

// dumpIR writes each namespace's IR as JSON to dir/<Name>-<Version>.json.
func dumpIR(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	for _, ns := range res.Namespaces {
		data, err := json.MarshalIndent(ns, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "encode IR of %s", ns.Ref())
		}
		if err := os.WriteFile(filepath.Join(dir, ns.Ref()+".json"), append(data, '\n'), 0o644); err != nil {
			return errors.Wrapf(err, "write IR of %s", ns.Ref())
		}
	}
	return nil
}

// runStatus classifies a finished run for the store.
func runStatus(res *pipeline.Result) string {
	if len(res.Failures) > 0 {
		return store.StatusPartial
	}
	return store.StatusOK
}

// recordRun appends res to the store at path.
func recordRun(ctx context.Context, path string, res *pipeline.Result) (store.Run, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()

	return st.RecordRun(ctx, store.RunRecord{
		ManifestDigest: res.ManifestDigest,
		RunDigest:      res.RunDigest,
		Status:         runStatus(res),
		Namespaces:     len(res.Namespaces) + len(res.Failures),
		Failed:         failedNames(res),
		Outputs:        outputsOf(res),
		Diagnostics:    res.Diagnostics(),
	})
}

// recordFailure appends an aborted run to the store at path.
func recordFailure(ctx context.Context, path string, m *config.Manifest) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	digest, err := ir.ManifestDigest(m.Canonical())
	if err != nil {
		return err
	}
	_, err = st.RecordRun(ctx, store.RunRecord{
		ManifestDigest: digest,
		Status:         store.StatusFailed,
		Namespaces:     len(m.Namespaces),
	})
	return err
}

func outputsOf(res *pipeline.Result) []store.Output {
	out := make([]store.Output, len(res.Output.Files))
	for i, f := range res.Output.Files {
		out[i] = store.Output{Path: f.Path, Digest: f.Digest, Size: int64(len(f.Text))}
	}
	return out
}

func failedNames(res *pipeline.Result) []string {
	names := make([]string, 0, len(res.Failures))
	for ns := range res.Failures {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
