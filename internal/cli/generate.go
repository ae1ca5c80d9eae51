package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/pipeline"
	"github.com/roach88/gistub/internal/resolver"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Out       string
	Snapshots string
	DumpIR    string
	Watch     bool
	Debounce  time.Duration
}

// FileSummary describes one emitted file.
type FileSummary struct {
	Path      string `json:"path"`
	Group     string `json:"group"`
	Namespace string `json:"namespace"`
	Digest    string `json:"digest"`
	Size      int    `json:"size"`
}

// GenerateResult is the output of one generation.
type GenerateResult struct {
	Out         string          `json:"out"`
	RunID       string          `json:"run_id,omitempty"`
	RunDigest   string          `json:"run_digest"`
	Files       []FileSummary   `json:"files"`
	Failed      []string        `json:"failed"`
	Diagnostics []ir.Diagnostic `json:"diagnostics"`
	DurationMS  int64           `json:"duration_ms"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <manifest>",
		Short: "Generate stub packages",
		Long: `Reflect every namespace of the manifest and write one stub package per
group under the output directory.

A namespace that fails is skipped and reported; the others are still
written. With --db the run is recorded in the run store. With --watch the
tree is regenerated whenever the manifest, a probe dump or a GIR file
changes.

Exit codes:
  0 - Every namespace was emitted
  1 - The manifest is invalid, or some namespaces were skipped
  2 - Command error (unreadable manifest, missing snapshot dir, etc.)

Examples:
  gistub generate gistub.yaml --out ./stubs
  gistub generate gistub.toml --snapshots ./dumps --db ./runs.db
  gistub generate gistub.cue --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "stubs", "output directory")
	cmd.Flags().StringVar(&opts.Snapshots, "snapshots", "", "probe dump directory (overrides snapshot_dir)")
	cmd.Flags().StringVar(&opts.DumpIR, "dump-ir", "", "also write each namespace's IR as JSON to this directory")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "regenerate when inputs change")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "quiet period before a watched change regenerates")

	return cmd
}

func runGenerate(opts *GenerateOptions, manifestPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger(cmd)
	defer log.Sync() //nolint:errcheck

	m, err := loadManifest(f, manifestPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = generate(ctx, opts, m, f, log)
	if !opts.Watch {
		return err
	}

	w, werr := newWatcher(watchPaths(manifestPath, m, opts.Snapshots), opts.Debounce, log)
	if werr != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to start watch", werr), ErrCodeGeneric, werr.Error(), nil)
	}
	f.VerboseLog("Watching for changes (Ctrl-C to stop)")
	return w.run(ctx, func() error {
		next, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		return generate(ctx, opts, next, f, log)
	})
}

// generate performs one run and reports it.
func generate(ctx context.Context, opts *GenerateOptions, m *config.Manifest, f *OutputFormatter, log *zap.SugaredLogger) error {
	res, err := generateOnce(ctx, m, snapshotDir(m, opts.Snapshots), log)
	if err != nil {
		if opts.Database != "" && resolver.IsCycleError(err) {
			if rerr := recordFailure(ctx, opts.Database, m); rerr != nil {
				log.Warnw("could not record failed run", "error", rerr)
			}
		}
		return reportRunError(f, err)
	}

	if err := writeTree(opts.Out, res); err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to write output", err), ErrCodeWrite, err.Error(), nil)
	}
	if opts.DumpIR != "" {
		if err := dumpIR(opts.DumpIR, res); err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to dump IR", err), ErrCodeWrite, err.Error(), nil)
		}
	}

	result := summarize(opts.Out, res)
	if opts.Database != "" {
		run, err := recordRun(ctx, opts.Database, res)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to record run", err), ErrCodeStore, err.Error(), nil)
		}
		result.RunID = run.ID
	}
	return outputGenerate(f, result)
}

func reportRunError(f *OutputFormatter, err error) error {
	if resolver.IsCycleError(err) || resolver.IsConfigError(err) {
		return f.Fail(WrapExitError(ExitFailure, "package groups are invalid", err), ErrCodeGroups, err.Error(), nil)
	}
	return f.Fail(WrapExitError(ExitCommandError, "generation failed", err), ErrCodeRun, err.Error(), nil)
}

func summarize(out string, res *pipeline.Result) GenerateResult {
	result := GenerateResult{
		Out:         out,
		RunDigest:   res.RunDigest,
		Files:       make([]FileSummary, len(res.Output.Files)),
		Failed:      failedNames(res),
		Diagnostics: res.Diagnostics(),
		DurationMS:  res.Duration.Milliseconds(),
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []ir.Diagnostic{}
	}
	for i, file := range res.Output.Files {
		result.Files[i] = FileSummary{
			Path:      file.Path,
			Group:     file.Group,
			Namespace: file.Namespace,
			Digest:    file.Digest,
			Size:      len(file.Text),
		}
	}
	return result
}

func outputGenerate(f *OutputFormatter, r GenerateResult) error {
	failed := len(r.Failed) > 0
	if f.JSON() {
		if failed {
			if err := f.Failure(ErrCodeRun, fmt.Sprintf("%d namespace(s) skipped", len(r.Failed)), r); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d namespace(s) skipped", len(r.Failed)))
		}
		return f.Success(r)
	}

	rows := make([][]string, len(r.Files))
	for i, file := range r.Files {
		rows[i] = []string{file.Group, file.Namespace, file.Path, strconv.Itoa(file.Size), short(file.Digest)}
	}
	if err := f.Table([]string{"Group", "Namespace", "Path", "Bytes", "Digest"}, rows); err != nil {
		return err
	}
	for _, d := range r.Diagnostics {
		if d.Severity != ir.SeverityInfo || f.Verbose {
			f.Line("%s", d.String())
		}
	}
	if failed {
		f.Mark(false, "%d file(s) written to %s, skipped: %v", len(r.Files), r.Out, r.Failed)
		return NewExitError(ExitFailure, fmt.Sprintf("%d namespace(s) skipped", len(r.Failed)))
	}
	f.Mark(true, "%d file(s) written to %s (run %s)", len(r.Files), r.Out, short(r.RunDigest))
	return nil
}

// watchPaths lists the inputs of a run: the manifest, the dump directory
// and every docs location.
func watchPaths(manifestPath string, m *config.Manifest, snapshots string) []string {
	paths := []string{manifestPath, snapshotDir(m, snapshots)}
	paths = append(paths, m.Docs.SearchPaths...)
	for _, ns := range m.Namespaces {
		if ns.Docs != "" {
			paths = append(paths, filepath.Dir(ns.Docs))
		}
	}
	return paths
}
