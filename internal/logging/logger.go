package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Standardized structured logging keys. Components attach these so log lines
// can be filtered by election, collection, or contest without guessing key
// spellings.
const (
	// FieldComponent names the engine component emitting the record.
	FieldComponent = "component"
	// FieldElection is the election directory name being audited.
	FieldElection = "election"
	// FieldStage is the three-digit audit stage label.
	FieldStage = "stage"
	// FieldCollection is a paper ballot collection id.
	FieldCollection = "pbcid"
	// FieldContest is a contest id.
	FieldContest = "cid"
	// FieldRun is the journal run identifier for a stage execution.
	FieldRun = "run_id"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger from the provided options. Format is one of
// "console" (default) or "json"; Output defaults to stderr.
func New(opts Options) (*slog.Logger, error) {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	switch format {
	case "json":
		return slog.New(newJSONHandler(out, level)), nil
	case "console":
		return slog.New(newConsoleHandler(out, level)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewNop returns a logger that discards every record. Safe for tests and for
// components whose callers did not supply a logger.
func NewNop() *slog.Logger {
	return slog.New(nopHandler{})
}

// WithComponent tags a logger with the standard component attribute, keeping
// nil-safety for callers that were handed no logger at all.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// ParseLevel maps a config string to a slog level. Unknown values fall back
// to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
