package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"passlaunch/internal/config"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives log output. Nil means stderr.
	Writer io.Writer
	// File, when set, additionally appends every record to this path.
	File string
	// Color renders console level labels with ANSI colours.
	Color bool
}

// New constructs a slog logger using the provided options. Source locations
// are attached only at debug level.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		w = io.MultiWriter(w, file)
	}

	addSource := level <= slog.LevelDebug
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case FormatJSON:
		return slog.New(newJSONHandler(w, level, addSource)), nil
	case FormatConsole, "":
		return slog.New(newConsoleHandler(w, level, addSource, opts.Color)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a CLI logger from the logging section of cfg. Output
// goes to w, or stderr when w is nil, so stdout stays reserved for command
// results. A non-empty levelOverride takes precedence over the configured
// level. Console output is coloured when w is a terminal.
func NewFromConfig(cfg *config.Config, levelOverride string, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	opts := Options{Level: "warn", Format: FormatConsole, Writer: w}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	if strings.TrimSpace(levelOverride) != "" {
		opts.Level = levelOverride
	}
	if f, ok := w.(*os.File); ok {
		opts.Color = isatty.IsTerminal(f.Fd())
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newJSONHandler(w io.Writer, level slog.Level, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
