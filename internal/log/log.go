// Package log configures the logrus logger shared by the shell and CLI.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options select level and destinations
type Options struct {
	Debug bool
	// File, when set, receives JSON lines in addition to stderr
	File string
	// Stderr defaults to os.Stderr
	Stderr io.Writer
}

// Logger wraps a logrus logger and whatever file it holds open
type Logger struct {
	*logrus.Logger
	file *os.File
}

// New builds a logger. Warnings and errors go to stderr as text; with
// Debug everything does. A log file records the same entries as JSON.
func New(opts Options) (*Logger, error) {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	}
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !opts.Debug})

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	l.SetOutput(stderr)

	logger := &Logger{Logger: l}
	if opts.File == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.file = f
	l.AddHook(&fileHook{w: f, formatter: &logrus.JSONFormatter{}})
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// fileHook writes every entry at or above the logger level to w
type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
