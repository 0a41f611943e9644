// Package logging builds the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  string
	Format Format
	// Output is "stderr", "stdout" or a file path.
	Output    string
	AddSource bool
	Component string
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatText, Output: "stderr", Component: "aidd"}
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger and a closer for any file it opened.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer
	var closer io.Closer = nopCloser{}
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	return NewWithWriter(w, cfg.Format, level, cfg.AddSource, cfg.Component), closer, nil
}

func NewWithWriter(w io.Writer, format Format, level slog.Level, addSource bool, component string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StageLogger adapts slog to the level/stage/message/detail logging used by
// the detection engine.
type StageLogger struct {
	L *slog.Logger
}

func (s StageLogger) Log(level, stage, message, detail string) {
	if s.L == nil {
		return
	}
	lvl := slog.LevelInfo
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN", "WARNING":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	}
	s.L.Log(context.Background(), lvl, message, "kind", level, "stage", stage, "detail", detail)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
