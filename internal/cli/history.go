package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/gistub/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryResult lists recorded runs, newest first, and what changed
// between the two most recent ones.
type HistoryResult struct {
	Runs   []store.Run       `json:"runs"`
	Latest *store.Comparison `json:"latest,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in the run store, newest first, and the files
that changed between the last two.

Example:
  gistub history --db ./runs.db --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Database == "" {
		return f.Fail(NewExitError(ExitCommandError, "--db is required"), ErrCodeStore, "--db is required", nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to open run store", err), ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to list runs", err), ErrCodeStore, err.Error(), nil)
	}
	result := HistoryResult{Runs: runs}
	if result.Runs == nil {
		result.Runs = []store.Run{}
	}
	if len(runs) >= 2 {
		c, err := st.CompareRuns(cmd.Context(), runs[1].ID, runs[0].ID)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to compare runs", err), ErrCodeStore, err.Error(), nil)
		}
		result.Latest = &c
	}

	if f.JSON() {
		return f.Success(result)
	}
	if len(runs) == 0 {
		f.Line("No runs recorded.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.Seq, 10), short(r.ID), r.Status,
			strconv.Itoa(r.Files), short(r.RunDigest),
		}
	}
	if err := f.Table([]string{"Seq", "Run", "Status", "Files", "Digest"}, rows); err != nil {
		return err
	}
	if c := result.Latest; c != nil {
		if c.Empty() {
			f.Mark(true, "Latest run matches the previous one")
			return nil
		}
		for _, p := range c.Added {
			f.Line("+ %s", p)
		}
		for _, p := range c.Removed {
			f.Line("- %s", p)
		}
		for _, p := range c.Changed {
			f.Line("~ %s", p)
		}
	}
	return nil
}
