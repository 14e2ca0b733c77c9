package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Spinner displays an animated spinner with batch progress. It receives
// updates through Report; on a non-TTY each update is printed as a line.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	isTTY   bool
	final   string
	label   string
	percent float64
}

// NewSpinner creates a spinner that prints final once Run stops.
func NewSpinner(final string) *Spinner {
	return &Spinner{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
		final: final,
	}
}

// Report records a progress update. increment is in percent; the total is
// clamped to 100.
func (s *Spinner) Report(message string, increment float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = message
	s.percent = min(100, s.percent+increment)

	if !s.isTTY {
		fmt.Fprintf(s.out, "%s %s %s(%.0f%%)%s\n", tag(Cyan), message, Color(Dim), s.percent, Color(Reset))
	}
}

// Percent returns the accumulated progress.
func (s *Spinner) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Run runs the spinner until the context is cancelled.
func (s *Spinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s %s✓%s %s %s(%.0f%%)%s          \n",
				tag(Green), Color(Green), Color(Reset), s.final, Color(Dim), s.percent, Color(Reset))
			s.mu.Unlock()
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s %s%s%s %s %s(%.0f%%)%s          ",
				tag(Cyan), Color(Cyan), frame, Color(Reset), s.label, Color(Dim), s.percent, Color(Reset))
			s.mu.Unlock()
			idx++
		}
	}
}

// PhaseSpinner displays a simple spinner for a single phase.
type PhaseSpinner struct {
	out   io.Writer
	isTTY bool
	label string
}

// NewPhaseSpinner creates a new phase spinner.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
		label: label,
	}
}

// Run runs the phase spinner until the context is cancelled.
func (s *PhaseSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.out, "\r%s %s✓%s %s          \n", tag(Green), Color(Green), Color(Reset), s.label)
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			fmt.Fprintf(s.out, "\r%s %s%s%s %s          ", tag(Cyan), Color(Cyan), frame, Color(Reset), s.label)
			idx++
		}
	}
}

// Start calls run (a spinner's Run method) in the background. The returned
// stop function cancels it and waits for the final line to be written.
func Start(run func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}
