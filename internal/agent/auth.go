package agent

import (
	"strings"
)

// authStderrPatterns contains substrings that indicate authentication failure
// when found in stderr output (checked case-insensitively).
var authStderrPatterns = []string{
	"api_key",
	"api key",
	"unauthorized",
	"401",
	"authentication required",
	"not logged in",
	"invalid credentials",
}

// authHints maps providers to actionable messages shown on auth failure.
var authHints = map[Type]string{
	TypeClaude: "Run 'claude login' or check your API key configuration.",
	TypeCodex:  "Set OPENAI_API_KEY or run 'codex login' to authenticate.",
	TypeQoder:  "Run 'qoder login' to authenticate.",
	TypeAider:  "Set the API key for aider's model (e.g. OPENAI_API_KEY or ANTHROPIC_API_KEY).",
}

// IsAuthFailure reports whether a failed result looks like an authentication
// problem. Successful results are never auth failures.
func IsAuthFailure(res Result) bool {
	if res.Success || res.TimedOut {
		return false
	}
	lower := strings.ToLower(res.Stderr + "\n" + res.Error)
	for _, pattern := range authStderrPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// AuthHint returns an actionable message for the provider type.
// Returns a generic hint for providers without a specific one.
func AuthHint(t Type) string {
	if hint, ok := authHints[t]; ok {
		return hint
	}
	return "Check your authentication configuration for " + string(t) + "."
}
