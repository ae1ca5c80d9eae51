package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gistub/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Snapshots string
}

// VerifyResult reports whether two runs produced the same tree.
type VerifyResult struct {
	Idempotent bool             `json:"idempotent"`
	RunDigest  string           `json:"run_digest"`
	Files      int              `json:"files"`
	Comparison store.Comparison `json:"comparison"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <manifest>",
		Short: "Check that generation is deterministic",
		Long: `Run the pipeline twice over the same inputs and compare every file
digest. Nothing is written.

Exit codes:
  0 - Both runs produced the same tree
  1 - The trees differ, or the manifest is invalid
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Snapshots, "snapshots", "", "probe dump directory (overrides snapshot_dir)")

	return cmd
}

func runVerify(opts *VerifyOptions, manifestPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger(cmd)

	m, err := loadManifest(f, manifestPath)
	if err != nil {
		return err
	}
	dir := snapshotDir(m, opts.Snapshots)

	first, err := generateOnce(cmd.Context(), m, dir, log)
	if err != nil {
		return reportRunError(f, err)
	}
	second, err := generateOnce(cmd.Context(), m, dir, log)
	if err != nil {
		return reportRunError(f, err)
	}

	c := store.Diff(outputsOf(first), outputsOf(second))
	result := VerifyResult{
		Idempotent: c.Empty() && first.RunDigest == second.RunDigest,
		RunDigest:  first.RunDigest,
		Files:      len(first.Output.Files),
		Comparison: c,
	}

	if !result.Idempotent {
		msg := fmt.Sprintf("runs differ: %d added, %d removed, %d changed", len(c.Added), len(c.Removed), len(c.Changed))
		if f.JSON() {
			if err := f.Failure(ErrCodeNotIdempotent, msg, result); err != nil {
				return err
			}
		} else {
			f.Mark(false, "%s", msg)
			for _, p := range c.Changed {
				f.Line("changed: %s", p)
			}
		}
		return NewExitError(ExitFailure, msg)
	}

	if f.JSON() {
		return f.Success(result)
	}
	f.Mark(true, "%d file(s) identical across runs (run %s)", result.Files, short(result.RunDigest))
	return nil
}
