package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript creates an executable shell script named name in dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write script %s: %v", name, err)
	}
	return path
}

// prependPath puts dir first on PATH for the duration of the test.
func prependPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// validDoc returns Markdown that passes ValidateOutput.
func validDoc(title string) string {
	return "# " + title + "\n\n" + strings.Repeat("Documentation body text. ", 4) + "\n"
}
