// Package logging opens the file logger shared by the CLI commands and the
// terminal preview. Only operation names, roles and counts are ever logged.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ajramos/mailkeys/internal/config"
)

// Prefix starts every log line
const Prefix = "[mailkeys] "

// New creates a logger writing to w
func New(w io.Writer) *log.Logger {
	return log.New(w, Prefix, log.LstdFlags|log.Lmicroseconds)
}

// Open appends to the log file at path, creating its directory if needed
func Open(path string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return New(f), f, nil
}

// ForConfig returns the logger cfg asks for: nil unless Verbose is set, otherwise
// a file logger on LogFile or the default log path. The returned close func is
// always safe to call.
func ForConfig(cfg *config.Config) (*log.Logger, func(), error) {
	noop := func() {}
	if cfg == nil || !cfg.Verbose {
		return nil, noop, nil
	}
	path := config.ResolvePath(cfg.LogFile)
	if path == "" {
		path = config.DefaultLogPath()
	}
	if path == "" {
		return nil, noop, nil
	}
	logger, f, err := Open(path)
	if err != nil {
		return nil, noop, err
	}
	return logger, func() { _ = f.Close() }, nil
}
