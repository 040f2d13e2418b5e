package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar is the environment variable consulted by FromEnv for a log
// spec, for example SWITCHD_LOG="info,manager=debug".
const EnvVar = "SWITCHD_LOG"

// Format selects the log output encoding.
type Format string

const (
	// FormatText is human-readable key=value text.
	FormatText Format = "text"
	// FormatJSON is one JSON object per record.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %q", s)
	}
}

// Options configures the logger factory. The three spec fields mirror
// where a spec can come from; New applies the precedence.
type Options struct {
	// EnvSpec is the spec from the SWITCHD_LOG environment variable.
	EnvSpec string
	// CLISpec is the spec from a command line flag.
	CLISpec string
	// ConfigSpec is the spec from the config file (lowest precedence).
	ConfigSpec string
	// Format is the output encoding; zero value means text.
	Format Format
	// Output receives log records. Defaults to os.Stdout.
	Output io.Writer
}

// New builds a slog.Logger with component-level filtering.
// Precedence: CLISpec over EnvSpec over ConfigSpec over defaults,
// following the Unix convention that flags override the environment.
func New(opts Options) (*slog.Logger, error) {
	specStr := ""
	switch {
	case opts.CLISpec != "":
		specStr = opts.CLISpec
	case opts.EnvSpec != "":
		specStr = opts.EnvSpec
	case opts.ConfigSpec != "":
		specStr = opts.ConfigSpec
	}

	spec, err := ParseSpec(specStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log spec: %w", err)
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	// The inner handler admits everything; the filtering wrapper is
	// the only gate.
	handlerOpts := &slog.HandlerOptions{Level: LevelTrace.ToSlog()}

	var inner slog.Handler
	switch opts.Format {
	case FormatJSON:
		inner = slog.NewJSONHandler(output, handlerOpts)
	default:
		inner = slog.NewTextHandler(output, handlerOpts)
	}

	return slog.New(NewFilteringHandler(inner, &spec)), nil
}

// Default returns a logger with default settings: info level, text
// format, stdout.
func Default() *slog.Logger {
	logger, _ := New(Options{})
	return logger
}

// FromEnv builds a logger from the SWITCHD_LOG environment variable.
func FromEnv() (*slog.Logger, error) {
	return New(Options{
		EnvSpec: os.Getenv(EnvVar),
	})
}
