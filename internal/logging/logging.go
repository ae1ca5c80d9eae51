// Package logging builds the zap loggers used across gistub.
//
// Library packages accept a *zap.SugaredLogger and default to Nop when none
// is given. Only the CLI decides between console and JSON output.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured field keys shared by every component.
const (
	FieldNamespace = "namespace"
	FieldEntity    = "entity"
	FieldGroup     = "group"
	FieldPath      = "path"
	FieldCode      = "code"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
)

// Options selects the logger output.
type Options struct {
	Verbose bool      // debug level instead of info
	JSON    bool      // production JSON encoder instead of console
	Writer  io.Writer // defaults to os.Stderr
}

// New builds a sugared logger for the given options.
func New(opts Options) *zap.SugaredLogger {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = newConsoleEncoder()
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return Nop()
	}
	return log
}

// newConsoleEncoder is a calm console format: no timestamps or callers,
// short level names.
func newConsoleEncoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		NameKey:          "logger",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.MillisDurationEncoder,
		ConsoleSeparator: " ",
	}
	return zapcore.NewConsoleEncoder(cfg)
}
