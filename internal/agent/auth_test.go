package agent

import (
	"testing"
)

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"success is never auth failure", Result{Success: true, Stderr: "api_key not set"}, false},
		{"timeout is never auth failure", Result{TimedOut: true, Stderr: "unauthorized"}, false},
		{"stderr api_key", Result{ExitCode: 1, Stderr: "api_key not set"}, true},
		{"stderr unauthorized", Result{ExitCode: 1, Stderr: "Error: Unauthorized"}, true},
		{"stderr 401", Result{ExitCode: 1, Stderr: "HTTP 401 response"}, true},
		{"error text not logged in", Result{ExitCode: 1, Error: "You are not logged in"}, true},
		{"no auth signal", Result{ExitCode: 1, Stderr: "something failed"}, false},
		{"case insensitive", Result{ExitCode: 1, Stderr: "UNAUTHORIZED access"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthFailure(tt.res); got != tt.want {
				t.Errorf("IsAuthFailure(%+v) = %v, want %v", tt.res, got, tt.want)
			}
		})
	}
}

func TestAuthHint(t *testing.T) {
	for _, typ := range SupportedTypes {
		t.Run(string(typ), func(t *testing.T) {
			if hint := AuthHint(typ); hint == "" {
				t.Errorf("AuthHint(%q) returned empty string", typ)
			}
		})
	}
}
