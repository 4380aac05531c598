// Package logging hands out per-component logrus loggers that share one
// configured root logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config selects level, format and sink of the root logger.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, simple or json
	File   string `yaml:"file"`   // empty means stderr
}

var (
	mu      sync.Mutex
	root    = newRoot()
	loggers = make(map[string]*logrus.Entry)
)

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&TextFormatter{})
	return l
}

// Configure applies cfg to the root logger. Loggers handed out earlier pick
// up the change. The returned closer releases the log file, if any.
func Configure(cfg Config) (io.Closer, error) {
	mu.Lock()
	defer mu.Unlock()

	levelStr := cfg.Level
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	root.SetLevel(level)

	switch cfg.Format {
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		root.SetFormatter(&TextFormatter{DisableTimestamp: true, DisableComponent: true})
	case "", "text":
		root.SetFormatter(&TextFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text, simple or json", cfg.Format)
	}

	if cfg.File == "" {
		root.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	root.SetOutput(f)
	return f, nil
}

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := root.WithField("component", component)
	loggers[component] = l
	return l
}

// SetOutput redirects the root logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root.SetOutput(w)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
