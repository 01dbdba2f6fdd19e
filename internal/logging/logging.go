// Package logging builds the process loggers: a rotating log file plus,
// optionally, stderr.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Verbose also writes log lines to Stderr.
	Verbose bool
	Stderr  io.Writer
}

// Logs hands out prefixed loggers sharing one destination.
type Logs struct {
	out    io.Writer
	closer io.Closer
}

// New opens the log destination described by opts.
func New(opts Options) (*Logs, error) {
	var writers []io.Writer
	var closer io.Closer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, lj)
		closer = lj
	}
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}
	return &Logs{out: out, closer: closer}, nil
}

// Discard returns Logs that drop everything.
func Discard() *Logs {
	return &Logs{out: io.Discard}
}

// Logger returns a logger for component, prefixed like "[sync] ".
func (l *Logs) Logger(component string) *log.Logger {
	return log.New(l.out, "["+component+"] ", log.LstdFlags)
}

// Close flushes and closes the log file.
func (l *Logs) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
