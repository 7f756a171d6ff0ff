// Package logging provides a leveled logger on top of the standard library
// logger, with size-based rotation of the log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels, lowest first.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Config holds logging settings.
type Config struct {
	Level      string
	File       string // empty means stdout only
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, ok := levelRank[c.Level]; !ok {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	if c.File != "" && c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be non-negative")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age must be non-negative")
	}
	return nil
}

// Logger writes leveled lines to stdout and, optionally, a rotated file.
type Logger struct {
	*log.Logger
	min    int
	writer *lumberjack.Logger
}

// New creates a Logger from cfg.
func New(cfg *Config) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	var writer *lumberjack.Logger
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		writer = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		out = io.MultiWriter(writer, os.Stdout)
	}

	return &Logger{
		Logger: log.New(out, "", log.LstdFlags|log.LUTC),
		min:    levelRank[cfg.Level],
		writer: writer,
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0), min: levelRank[LevelError] + 1}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

func (l *Logger) logf(level, format string, v ...any) {
	if levelRank[level] < l.min {
		return
	}
	l.Printf("["+strings.ToUpper(level)+"] "+format, v...)
}

func (l *Logger) Debug(format string, v ...any) { l.logf(LevelDebug, format, v...) }
func (l *Logger) Info(format string, v ...any)  { l.logf(LevelInfo, format, v...) }
func (l *Logger) Warn(format string, v ...any)  { l.logf(LevelWarn, format, v...) }
func (l *Logger) Error(format string, v ...any) { l.logf(LevelError, format, v...) }
