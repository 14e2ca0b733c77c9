// Package terminal provides terminal output formatting and TTY detection.
package terminal

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// ANSI color codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Red     = "\033[31m"
	Magenta = "\033[35m"
)

var colorsEnabled atomic.Bool

func init() {
	colorsEnabled.Store(true)
}

// SetColorsEnabled sets the color output state.
func SetColorsEnabled(enabled bool) {
	colorsEnabled.Store(enabled)
}

// ColorsEnabled returns whether colors are currently enabled.
func ColorsEnabled() bool {
	return colorsEnabled.Load()
}

// WithColorsDisabled runs fn with colors disabled, then restores the previous state.
func WithColorsDisabled(fn func()) {
	prev := colorsEnabled.Swap(false)
	defer colorsEnabled.Store(prev)
	fn()
}

// Color returns the color code if colors are enabled, otherwise empty string.
func Color(c string) string {
	if colorsEnabled.Load() {
		return c
	}
	return ""
}

// ShouldUseColor reports whether stderr output should be colored.
// Respects NO_COLOR, CLICOLOR=0 and CLICOLOR_FORCE.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if _, ok := os.LookupEnv("CLICOLOR_FORCE"); ok {
		return true
	}
	return IsStderrTTY()
}

// IsTTY returns true if the given file descriptor is a TTY.
func IsTTY(fd int) bool {
	return term.IsTerminal(fd)
}

// IsStdinTTY returns true if stdin is a TTY.
func IsStdinTTY() bool {
	return IsTTY(int(os.Stdin.Fd()))
}

// IsStderrTTY returns true if stderr is a TTY.
func IsStderrTTY() bool {
	return IsTTY(int(os.Stderr.Fd()))
}

// GetTerminalWidth returns the terminal width, or 80 if detection fails.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
