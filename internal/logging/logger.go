package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotated log file written under the configured log directory.
const LogFileName = "ovtracker.log"

// Options describes logger construction parameters.
type Options struct {
	Level      string
	Format     string
	Console    io.Writer
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	// Location is the zone timestamps are rendered in. Nil means time.Local.
	Location *time.Location
}

// New builds a logger writing to the console in the requested format and,
// when FilePath is set, JSON to a size-rotated file. The file keeps info
// records even when the console level is quieter, so unattended runs leave a
// complete trail of gate decisions.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	addSource := level <= slog.LevelDebug

	var consoleSink slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		consoleSink = newConsoleSink(console, level, loc, addSource)
	case "json":
		consoleSink = newJSONSink(console, level, loc, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	var fileSink slog.Handler
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		}
		fileSink = newJSONSink(rotator, min(level, slog.LevelInfo), loc, addSource)
	}

	return slog.New(tee(consoleSink, fileSink)), nil
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
