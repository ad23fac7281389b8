// Package logger provides centralized slog.Logger construction with
// configurable level and output format (text, JSON or console).
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// New creates a *slog.Logger configured with the given level and format.
// Level: "debug", "info", "warn", "error" (default: "info").
// Format: "json", "console" or "text" (default: "text").
// Output goes to stderr.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a *slog.Logger writing to w.
// Useful for testing or redirecting output.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "console":
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(lvl),
			ReportTimestamp: true,
		})
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// LevelOff is above every level the watcher logs at.
const LevelOff = slog.LevelError + 4

// ParseLevel converts a level string to slog.Level, ignoring case and
// surrounding space. "warning" is accepted for "warn" and "off" silences
// the logger. Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off", "none":
		return LevelOff
	default:
		return slog.LevelInfo
	}
}

// VerbosityLevel maps a repeated -v flag onto a level name. Zero keeps
// base; one raises to info; two or more raise to debug.
func VerbosityLevel(base string, verbose int) string {
	switch {
	case verbose >= 2:
		return "debug"
	case verbose == 1 && ParseLevel(base) > slog.LevelInfo:
		return "info"
	default:
		return base
	}
}
