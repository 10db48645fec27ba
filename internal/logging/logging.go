// Package logging builds the application's slog logger. The terminal UI owns
// stdout, so records go to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures New.
type Options struct {
	// Path is the log file. Empty means DefaultPath.
	Path string

	// Level is one of debug, info, warn, error.
	Level string

	// Debug switches to the human-readable text handler at debug level.
	Debug bool
}

// DefaultPath returns $XDG_STATE_HOME/lingoquiz/lingoquiz.log, falling back
// to ~/.local/state.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("find home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "lingoquiz", "lingoquiz.log"), nil
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewHandler returns a JSON handler, or a text handler in debug mode.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	if opts.Debug {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
}

// New opens the log file and returns a logger writing to it. The returned
// closer must be called on exit.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	path := opts.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(NewHandler(f, opts)).With("pid", os.Getpid())
	return logger, f, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
