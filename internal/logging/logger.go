// Package logging configures the process-wide structured logger. Output is
// JSON, to stdout and optionally to a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls logger construction.
type Config struct {
	Level      slog.Level
	FilePath   string // empty disables file output
	MaxSizeMB  int64  // rotate the file when it grows past this
	MaxBackups int    // rotated files kept
	Console    bool
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:      slog.LevelInfo,
		MaxSizeMB:  100,
		MaxBackups: 5,
		Console:    true,
	}
}

// ParseLevel maps a level name to a slog.Level. Unknown names fall back to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a JSON logger for the given configuration.
func New(cfg Config) (*slog.Logger, error) {
	w, err := sink(cfg)
	if err != nil {
		return nil, err
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), nil
}

// SetDefault builds a logger and installs it as the slog default.
func SetDefault(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// sink assembles the output writer. With no destinations configured the
// logger still goes to stdout rather than nowhere.
func sink(cfg Config) (io.Writer, error) {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, os.Stdout)
	}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return nil, err
		}
		rw, err := NewRollingWriter(cfg.FilePath, cfg.MaxSizeMB<<20, cfg.MaxBackups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, rw)
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
