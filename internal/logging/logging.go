// Package logging hands out named bslogger loggers.
//
// bslogger prints through the standard log package with ANSI colours and
// optionally mirrors every line into a log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
)

var (
	mu      sync.Mutex
	logFile *os.File
	verbose bool
)

// Configure sets the file every logger created afterwards mirrors into.
// An empty path disables the mirror. Directories are created when missing.
func Configure(path string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	verbose = debug
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	return nil
}

// Logger is a named logger. The zero value and nil discard everything.
// bslogger swaps the output and prefix of its log.Logger on every call, so
// calls are serialized per Logger.
type Logger struct {
	mu      sync.Mutex
	bs      bslogger.Logger
	enabled bool
	debug   bool
}

func New(name string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	return &Logger{
		bs:      bslogger.NewLogger(name, bslogger.Normal, logFile),
		enabled: true,
		debug:   verbose,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger { return &Logger{} }

func (l *Logger) Error(message string) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bs.Error(message)
}

func (l *Logger) Warning(message string) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bs.Warning(message)
}

func (l *Logger) Info(message string) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bs.Info(message)
}

// Debug messages are only printed when Configure enabled debugging.
// They go out at info severity, bslogger's Normal verbosity hides its own debug level.
func (l *Logger) Debug(message string) {
	if l == nil || !l.enabled || !l.debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bs.Info("debug: " + message)
}

// Fatal logs message and exits the process.
func (l *Logger) Fatal(message string) {
	if l == nil || !l.enabled {
		fmt.Fprintln(os.Stderr, message)
		os.Exit(1)
	}
	l.mu.Lock()
	l.bs.Fatal(message)
}
