package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

// Logger provides styled logging to stderr.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	isTTY   bool
	verbose bool
}

// NewLogger creates a new logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
	}
}

// NewLoggerTo creates a logger writing to w. Line clearing is disabled.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

// SetVerbose enables Verbosef output.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// Verbose reports whether verbose output is enabled.
func (l *Logger) Verbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verbose
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	styleColor := Cyan
	switch style {
	case StyleSuccess:
		styleColor = Green
	case StyleWarning:
		styleColor = Yellow
	case StyleError:
		styleColor = Red
	case StyleDim:
		styleColor = Dim
	case StylePhase:
		styleColor = Magenta + Bold
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Clear spinner line if TTY
	if l.isTTY {
		fmt.Fprint(l.out, "\r"+strings.Repeat(" ", 100)+"\r")
	}
	fmt.Fprintf(l.out, "%s %s\n", tag(styleColor), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Verbosef prints a dim message only when verbose output is enabled.
func (l *Logger) Verbosef(format string, args ...any) {
	if !l.Verbose() {
		return
	}
	l.Log(fmt.Sprintf(format, args...), StyleDim)
}

// Sink adapts the logger to the agent log callback: lines marked always are
// shown as info, the rest only in verbose mode.
func (l *Logger) Sink() func(msg string, always bool) {
	return func(msg string, always bool) {
		if always {
			l.Log(msg, StyleInfo)
			return
		}
		l.Verbosef("%s", msg)
	}
}

func tag(c string) string {
	return fmt.Sprintf("%s[%s%srepowiki%s%s]%s",
		Color(Dim), Color(Reset), Color(c), Color(Reset), Color(Dim), Color(Reset))
}

// Log prints a styled log message to stderr (package-level function).
func Log(msg string, style Style) {
	NewLogger().Log(msg, style)
}

// Logf prints a formatted styled log message to stderr (package-level function).
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}
