package agent

import (
	"errors"
	"os/exec"
)

// exitCodeOf extracts the exit code from a Wait/Run error.
// Returns 0 for nil, the process code for ExitError and -1 otherwise.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
