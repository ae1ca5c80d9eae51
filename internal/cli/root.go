package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roach88/gistub/internal/logging"
)

// EnvPrefix prefixes every environment variable the CLI reads
// (GISTUB_FORMAT, GISTUB_DB, ...).
const EnvPrefix = "GISTUB"

// RootOptions holds global flags for all commands. Values are resolved
// through viper, so each can also come from a GISTUB_* variable.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogJSON  bool
	NoColor  bool
	Database string // run store path; empty disables recording

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gistub CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "gistub",
		Short: "gistub - typing stubs for GObject-introspection namespaces",
		Long: `Generate .pyi typing stubs for GObject-introspection namespaces.

Namespaces are reflected from recorded binding-layer probe dumps, merged
with their GIR documentation and emitted as one stub package per group.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				return err
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				pterm.DisableColor()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "write logs as JSON")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored text output")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite run store")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve reads the persistent settings back through viper: an explicit
// flag wins, then the environment, then the flag default.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	o.v.SetEnvPrefix(EnvPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()
	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	o.Verbose = o.v.GetBool("verbose")
	o.Format = o.v.GetString("format")
	o.LogJSON = o.v.GetBool("log-json")
	o.NoColor = o.v.GetBool("no-color")
	o.Database = o.v.GetString("db")
	return nil
}

// logger builds the run logger. Logs always go to stderr so JSON output on
// stdout stays parseable.
func (o *RootOptions) logger(cmd *cobra.Command) *zap.SugaredLogger {
	return logging.New(logging.Options{
		Verbose: o.Verbose,
		JSON:    o.LogJSON,
		Writer:  cmd.ErrOrStderr(),
	})
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
