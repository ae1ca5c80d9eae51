package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/roach88/gistub/internal/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Generation, validation or test failure
	ExitCommandError = 2 // Command error (unreadable manifest, missing snapshot dir, etc.)
)

// CLI error codes.
const (
	ErrCodeManifest      = "E001" // manifest unreadable or invalid
	ErrCodeSnapshot      = "E002" // snapshot directory missing or unusable
	ErrCodeRun           = "E003" // run-wide pipeline failure
	ErrCodeStore         = "E004" // run store failure
	ErrCodeGroups        = "E005" // package group graph is invalid
	ErrCodeNotIdempotent = "E006" // two runs disagreed
	ErrCodeWrite         = "E007" // output tree could not be written
	ErrCodeGeneric       = "E099"
	ErrCodeTestFailed    = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether the formatter writes JSON envelopes.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "%s %s\n", pterm.Red("Error ["+code+"]:"), message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail writes an error report and returns exit. A report that cannot be
// written is attached to exit rather than dropped.
func (f *OutputFormatter) Fail(exit *ExitError, code, message string, details any) error {
	werr := f.Error(code, message, details)
	switch {
	case werr == nil:
	case exit.Err == nil:
		exit.Err = errors.Wrap(werr, "write error report")
	default:
		exit.Err = errors.WithSecondaryError(exit.Err, werr)
	}
	return exit
}

// Failure writes data with an error status, for results that carry both a
// payload and a failure (failed scenarios, a partial run).
func (f *OutputFormatter) Failure(code, message string, data any) error {
	return f.encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Table renders rows under a header row.
func (f *OutputFormatter) Table(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(f.Writer, out)
	return nil
}

// Mark prints a status line prefixed with a check or a cross.
func (f *OutputFormatter) Mark(ok bool, format string, args ...any) {
	mark := pterm.Green("✓")
	if !ok {
		mark = pterm.Red("✗")
	}
	fmt.Fprintf(f.Writer, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Line prints an indented detail line.
func (f *OutputFormatter) Line(format string, args ...any) {
	fmt.Fprintf(f.Writer, "  "+format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// short trims a digest or ID for tables.
func short(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
