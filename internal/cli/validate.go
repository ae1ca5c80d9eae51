package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/pipeline"
	"github.com/roach88/gistub/internal/resolver"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool             `json:"valid"`
	Problems    []config.Problem `json:"problems,omitempty"`
	Groups      []GroupOrder     `json:"groups,omitempty"`
	Diagnostics []ir.Diagnostic  `json:"diagnostics,omitempty"`
}

// GroupOrder is one group in emission order.
type GroupOrder struct {
	Name       string   `json:"name"`
	Namespaces []string `json:"namespaces"`
	DependsOn  []string `json:"depends_on"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a manifest without reflecting anything",
		Long: `Validate a run manifest and its package group graph.

Checks the manifest rules (unique names, declared preloads, group
membership, precedence values) and that the groups, including edges
implied by cross-group preloads, form no cycle. No probe dump is read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifestPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	m, err := loadManifest(f, manifestPath)
	if err != nil {
		return err
	}
	f.VerboseLog("Loaded %d namespace(s) in %d group(s) from %s", len(m.Namespaces), len(m.Groups), manifestPath)

	plan, err := pipeline.PlanGroups(m, nil)
	if err != nil {
		field := "groups"
		if !resolver.IsCycleError(err) && !resolver.IsConfigError(err) {
			field = "manifest"
		}
		return outputValidationProblems(f, []config.Problem{{Field: field, Message: err.Error()}})
	}

	result := ValidationResult{Valid: true, Diagnostics: plan.Diagnostics}
	for _, g := range plan.Groups {
		result.Groups = append(result.Groups, GroupOrder{Name: g.Name, Namespaces: g.Namespaces, DependsOn: g.DependsOn})
	}

	if f.JSON() {
		return f.Success(result)
	}
	for _, g := range result.Groups {
		f.Line("%s: %v", g.Name, g.Namespaces)
	}
	for _, d := range result.Diagnostics {
		f.Line("%s", d.String())
	}
	f.Mark(true, "Manifest valid")
	return nil
}

func outputValidationProblems(f *OutputFormatter, problems []config.Problem) error {
	msg := fmt.Sprintf("%d validation problem(s)", len(problems))
	if f.JSON() {
		if err := f.Failure(ErrCodeGroups, msg, ValidationResult{Valid: false, Problems: problems}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	for _, p := range problems {
		f.Mark(false, "%s", p.String())
	}
	return NewExitError(ExitFailure, msg)
}
