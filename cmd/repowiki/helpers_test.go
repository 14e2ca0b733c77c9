package main

import (
	"context"
	"errors"
	"testing"

	"github.com/richhaase/repowiki/internal/domain"
	"github.com/richhaase/repowiki/internal/generator"
)

func TestExitCode(t *testing.T) {
	if err := exitCode(domain.ExitOK); err != nil {
		t.Errorf("exitCode(ExitOK) = %v, want nil", err)
	}

	err := exitCode(domain.ExitFailures)
	var exitErr exitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("exitCode(ExitFailures) = %T, want exitCodeError", err)
	}
	if exitErr.code != domain.ExitFailures {
		t.Errorf("code = %d, want %d", exitErr.code, domain.ExitFailures)
	}
}

func TestExitCodeError_Messages(t *testing.T) {
	tests := []struct {
		code domain.ExitCode
		want string
	}{
		{domain.ExitFailures, "some pages failed to generate"},
		{domain.ExitError, "command failed with error"},
		{domain.ExitInterrupted, "command was interrupted"},
		{domain.ExitCode(42), "exit code 42"},
	}
	for _, tt := range tests {
		if got := (exitCodeError{code: tt.code}).Error(); got != tt.want {
			t.Errorf("exitCodeError{%d}.Error() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestBatchExitCode(t *testing.T) {
	ctx := context.Background()

	if err := batchExitCode(ctx, generator.BatchResult{Success: 3}, nil); err != nil {
		t.Errorf("clean batch: got %v, want nil", err)
	}

	var exitErr exitCodeError
	err := batchExitCode(ctx, generator.BatchResult{Success: 2, Failed: 1}, nil)
	if !errors.As(err, &exitErr) || exitErr.code != domain.ExitFailures {
		t.Errorf("failed items: got %v, want ExitFailures", err)
	}

	err = batchExitCode(ctx, generator.BatchResult{}, context.Canceled)
	if !errors.As(err, &exitErr) || exitErr.code != domain.ExitInterrupted {
		t.Errorf("cancelled: got %v, want ExitInterrupted", err)
	}

	boom := errors.New("stat failed")
	if err := batchExitCode(ctx, generator.BatchResult{}, boom); !errors.Is(err, boom) {
		t.Errorf("batch error: got %v, want %v", err, boom)
	}
}

func TestBuildVersionString(t *testing.T) {
	if got := buildVersionString(); len(got) < len("repowiki ") || got[:9] != "repowiki " {
		t.Errorf("buildVersionString() = %q, want repowiki prefix", got)
	}
}
