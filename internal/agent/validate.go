package agent

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinContentLength is the shortest trimmed output, in characters, accepted
// as a document.
const MinContentLength = 50

// maxContentRetries is the number of fallback attempts after a rejection.
const maxContentRetries = 1

// ErrNoHeading is returned when output has no Markdown heading marker.
var ErrNoHeading = errors.New("no heading marker '#' found")

// ValidateOutput reports whether raw agent output is usable documentation.
// Content is rejected when its trimmed length is below MinContentLength or
// it contains no '#'. A rejection is always retryable.
func ValidateOutput(content string) error {
	trimmed := strings.TrimSpace(content)
	if n := utf8.RuneCountInString(trimmed); n < MinContentLength {
		return fmt.Errorf("content too short: %d characters, need at least %d", n, MinContentLength)
	}
	if !strings.Contains(trimmed, "#") {
		return ErrNoHeading
	}
	return nil
}
