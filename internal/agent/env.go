package agent

import (
	"os"
	"strings"
)

const utf8Locale = "C.UTF-8"

// stdinEnv returns the parent environment with LANG and LC_ALL forced to a
// UTF-8 locale so agents emit UTF-8 regardless of the user's shell setup.
func stdinEnv() []string {
	environ := os.Environ()
	env := make([]string, 0, len(environ)+2)
	for _, e := range environ {
		key, _, _ := strings.Cut(e, "=")
		if key == "LANG" || key == "LC_ALL" {
			continue
		}
		env = append(env, e)
	}
	return append(env, "LANG="+utf8Locale, "LC_ALL="+utf8Locale)
}
