package main

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarning
	levelError
)

func (l logLevel) String() string {
	return []string{"DEBUG", "INFO", "WARNING", "ERROR"}[l]
}

// logMsg carries one controller log line into the TUI.
type logMsg struct {
	level logLevel
	text  string
}

// statusLogger forwards log lines to the running program's status line.
// Lines logged before a program is attached are dropped.
type statusLogger struct {
	debug bool

	mu   sync.Mutex
	send func(tea.Msg)
}

func (l *statusLogger) attach(send func(tea.Msg)) {
	l.mu.Lock()
	l.send = send
	l.mu.Unlock()
}

// forward never blocks: Program.Send waits for the event loop, which may
// itself be waiting on the caller.
func (l *statusLogger) forward(msg tea.Msg) {
	l.mu.Lock()
	send := l.send
	l.mu.Unlock()
	if send != nil {
		go send(msg)
	}
}

func (l *statusLogger) log(level logLevel, text string) {
	l.forward(logMsg{level: level, text: text})
}

func (l *statusLogger) Error(msg string)   { l.log(levelError, msg) }
func (l *statusLogger) Warning(msg string) { l.log(levelWarning, msg) }
func (l *statusLogger) Info(msg string)    { l.log(levelInfo, msg) }

func (l *statusLogger) Debug(msg string) {
	if l.debug {
		l.log(levelDebug, msg)
	}
}

func (m logMsg) String() string { return fmt.Sprintf("%s: %s", m.level, m.text) }
