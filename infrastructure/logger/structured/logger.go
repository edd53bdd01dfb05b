// ABOUTME: Structured logger implementation using logrus
// ABOUTME: JSON or text output to stdout, optionally teed to a rotating file via lumberjack

package structured

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"linkparse-api/core/interfaces"
)

// Config selects level, format and optional file output
type Config struct {
	// Level is debug, info, warn or error
	Level string

	// Format is json or text
	Format string

	// File, when set, also receives every entry with size based rotation
	File string
}

// Logger implements interfaces.Logger on a logrus entry
type Logger struct {
	entry  *logrus.Entry
	closer io.Closer
}

// New creates a logger writing to stdout and cfg.File
func New(cfg Config) (*Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger writing to out and cfg.File
func NewWithWriter(cfg Config, out io.Writer) (*Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(defaultString(cfg.Level, "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	base := logrus.New()
	base.SetLevel(level)

	switch strings.ToLower(defaultString(cfg.Format, "json")) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	l := &Logger{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotating)
		l.closer = rotating
	}
	base.SetOutput(out)

	l.entry = logrus.NewEntry(base)
	return l, nil
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields map[string]interface{}) interfaces.Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), closer: l.closer}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

// Close flushes and closes the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
