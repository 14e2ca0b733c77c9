package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// countingAgent writes a fake stdin-mode agent that records each prompt as
// prompt-N.txt next to itself and prints firstOutput on the first call and
// laterOutput afterwards.
func countingAgent(t *testing.T, dir, name, firstOutput, laterOutput string) {
	t.Helper()
	for i, out := range []string{firstOutput, laterOutput} {
		path := filepath.Join(dir, "out-"+string(rune('1'+i))+".txt")
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeScript(t, dir, name, `dir=$(dirname "$0")
n=$(cat "$dir/count" 2>/dev/null || echo 0)
n=$((n+1))
echo "$n" > "$dir/count"
cat > "$dir/prompt-$n.txt"
if [ "$n" -eq 1 ]; then cat "$dir/out-1.txt"; else cat "$dir/out-2.txt"; fi
`)
}

func invocations(t *testing.T, dir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "count"))
	if err != nil {
		return 0
	}
	n := 0
	for _, c := range strings.TrimSpace(string(data)) {
		n = n*10 + int(c-'0')
	}
	return n
}

func stdinRequest(workspace string) Request {
	return Request{
		DocPath:       "repowiki/zh/content/guide.md",
		Title:         "Guide",
		SourceFiles:   []string{"main.go"},
		WorkspaceRoot: workspace,
	}
}

func TestInvokeStdin_WritesValidatedDocument(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	doc := validDoc("Guide")
	countingAgent(t, bin, "claude", doc, doc)
	prependPath(t, bin)

	req := stdinRequest(workspace)
	res := NewClaudeProvider(nil).Invoke(context.Background(), req)

	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	if n := invocations(t, bin); n != 1 {
		t.Errorf("agent invoked %d times, want 1", n)
	}
	got, err := os.ReadFile(filepath.Join(workspace, req.DocPath))
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if string(got) != doc {
		t.Errorf("document = %q, want agent output", got)
	}
}

func TestInvokeStdin_FallbackRetrySucceeds(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	doc := validDoc("Guide")
	countingAgent(t, bin, "claude", "Sorry, I can't.", doc)
	prependPath(t, bin)

	req := stdinRequest(workspace)
	res := NewClaudeProvider(nil).Invoke(context.Background(), req)

	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	if res.ShouldRetry {
		t.Error("ShouldRetry leaked out of the protocol")
	}
	if n := invocations(t, bin); n != 2 {
		t.Fatalf("agent invoked %d times, want 2", n)
	}

	first, _ := os.ReadFile(filepath.Join(bin, "prompt-1.txt"))
	second, _ := os.ReadFile(filepath.Join(bin, "prompt-2.txt"))
	if string(first) != BuildPrompt(req, PromptDefault) {
		t.Error("first attempt should use the default prompt")
	}
	if string(second) != BuildPrompt(req, PromptFallback) {
		t.Error("retry should use the fallback prompt")
	}
	if got, _ := os.ReadFile(filepath.Join(workspace, req.DocPath)); string(got) != doc {
		t.Errorf("document = %q, want retry output", got)
	}
}

func TestInvokeStdin_RetryCappedAtOne(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	countingAgent(t, bin, "claude", "nope", strings.Repeat("no heading ", 20))
	prependPath(t, bin)

	req := stdinRequest(workspace)
	res := NewClaudeProvider(nil).Invoke(context.Background(), req)

	if res.Success {
		t.Fatal("Invoke() should fail when the retry is also invalid")
	}
	if n := invocations(t, bin); n != 2 {
		t.Errorf("agent invoked %d times, want 2", n)
	}
	if !strings.HasPrefix(res.Error, "output failed validation: ") {
		t.Errorf("Error = %q, want validation failure", res.Error)
	}
	if _, err := os.Stat(filepath.Join(workspace, req.DocPath)); !os.IsNotExist(err) {
		t.Error("document should not be written after a failed retry")
	}
}

func TestInvokeStdin_WriteFailureIsDistinct(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	doc := validDoc("Guide")
	countingAgent(t, bin, "claude", doc, doc)
	prependPath(t, bin)

	// A file where the docs directory should be makes the write fail.
	if err := os.WriteFile(filepath.Join(workspace, "repowiki"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	res := NewClaudeProvider(nil).Invoke(context.Background(), stdinRequest(workspace))

	if res.Success {
		t.Fatal("Invoke() should fail when the document cannot be written")
	}
	if !strings.HasPrefix(res.Error, "failed to write document repowiki/zh/content/guide.md") {
		t.Errorf("Error = %q, want write failure", res.Error)
	}
	if n := invocations(t, bin); n != 1 {
		t.Errorf("write failures must not be retried, agent invoked %d times", n)
	}
}

func TestInvokeStdin_TimeoutNotRetried(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	writeScript(t, bin, "claude", `dir=$(dirname "$0")
echo 1 >> "$dir/calls"
sleep 10
`)
	prependPath(t, bin)

	proc := &Process{Timeout: 200 * time.Millisecond, Grace: 200 * time.Millisecond}
	res := NewClaudeProvider(proc).Invoke(context.Background(), stdinRequest(workspace))

	if !res.TimedOut {
		t.Fatalf("TimedOut = false, Error = %q", res.Error)
	}
	data, _ := os.ReadFile(filepath.Join(bin, "calls"))
	if n := strings.Count(string(data), "1"); n != 1 {
		t.Errorf("agent invoked %d times, want 1", n)
	}
}

func TestInvokeStdin_CodexEmbedsSources(t *testing.T) {
	bin, workspace := t.TempDir(), t.TempDir()
	doc := validDoc("Guide")
	countingAgent(t, bin, "codex", doc, doc)
	prependPath(t, bin)
	if err := os.WriteFile(filepath.Join(workspace, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := NewCodexProvider(nil).Invoke(context.Background(), stdinRequest(workspace))
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}

	prompt, _ := os.ReadFile(filepath.Join(bin, "prompt-1.txt"))
	if !strings.Contains(string(prompt), "```go\npackage main\n```") {
		t.Errorf("codex prompt should embed main.go, got:\n%s", prompt)
	}
}
