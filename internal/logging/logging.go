// Package logging wires the process logger and the run trace sink.
// Console output is plain text at the configured level; when a trace
// path is set, every record down to debug level is also appended to a
// JSONL file so a run's full model archaeology can be inspected later.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options configure New.
type Options struct {
	// Level is the console verbosity: debug, info, warn or error.
	// Unknown values mean info.
	Level string

	// Console receives human-readable lines. Defaults to os.Stderr.
	Console io.Writer

	// TracePath, when non-empty, is the JSONL trace file. Parent
	// directories are created, the file is appended to.
	TracePath string
}

// New builds the process logger and its trace. The trace is usable
// even when no trace path is configured; its methods just do nothing.
func New(opts Options) (*slog.Logger, *Trace, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}

	var traceFile *os.File
	if opts.TracePath != "" {
		if dir := filepath.Dir(opts.TracePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create trace directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.TracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace file: %w", err)
		}
		traceFile = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	trace := &Trace{log: logger, file: traceFile, enabled: traceFile != nil}
	return logger, trace, nil
}

// ParseLevel maps a config string onto a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
