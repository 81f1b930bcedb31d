package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a configured level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", name)
	}
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) (func() slog.Handler, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return func() slog.Handler { return slog.NewJSONHandler(w, opts) }, nil
	case "text":
		return func() slog.Handler { return slog.NewTextHandler(w, opts) }, nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

// openOutput returns the writer for cfg.Output and, for files, its closer.
func openOutput(cfg LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "none":
		return io.Discard, nil, nil
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		return file, file, nil
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}
}

// NewLogger creates the scan logger described by cfg. The returned closer is
// non-nil only when a log file was opened.
func NewLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	// Format is checked before the output so a bad format never leaves a file open.
	if _, err := newHandler(cfg.Format, io.Discard, nil); err != nil {
		return nil, nil, err
	}
	output, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}
	build, _ := newHandler(cfg.Format, output, &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource})
	return slog.New(build()), closer, nil
}
