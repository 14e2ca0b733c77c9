// Package domain provides process-level types shared by the CLI.
package domain

// ExitCode represents the exit status of a repowiki command.
type ExitCode int

const (
	// ExitOK indicates every document was generated or already up to date.
	ExitOK ExitCode = 0
	// ExitFailures indicates the batch finished but some documents failed.
	ExitFailures ExitCode = 1
	// ExitError indicates the command could not run.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the command was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// ForBatch maps a finished batch's failure count to an exit code.
func ForBatch(failed int) ExitCode {
	if failed > 0 {
		return ExitFailures
	}
	return ExitOK
}
