package agent

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func testRequest() Request {
	return Request{
		DocPath:       "repowiki/zh/content/api.md",
		Title:         "API",
		SourceFiles:   []string{"api/handler.go"},
		WorkspaceRoot: "/work",
	}
}

func TestProviderDescriptors(t *testing.T) {
	tests := []struct {
		typ      Type
		command  string
		priority int
		mode     Mode
	}{
		{TypeQoder, "qoder", 1, ModeExec},
		{TypeClaude, "claude", 2, ModeStdin},
		{TypeCodex, "codex", 3, ModeStdin},
		{TypeCursor, "cursor", 4, ModeExec},
		{TypeAider, "aider", 5, ModeExec},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p, err := NewProvider(tt.typ, nil)
			if err != nil {
				t.Fatalf("NewProvider(%q) error = %v", tt.typ, err)
			}
			d := p.Descriptor()
			if d.Type != tt.typ || d.Command != tt.command || d.Priority != tt.priority || d.Mode != tt.mode {
				t.Errorf("Descriptor() = %+v", d)
			}
			if d.Name == "" {
				t.Error("Descriptor().Name is empty")
			}
		})
	}
}

func TestNewProvider_Errors(t *testing.T) {
	for _, typ := range []Type{TypeCustom, "gemini", ""} {
		if _, err := NewProvider(typ, nil); err == nil {
			t.Errorf("NewProvider(%q) expected error", typ)
		}
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType(" Claude "); err != nil || got != TypeClaude {
		t.Errorf("ParseType(Claude) = %q, %v", got, err)
	}
	if _, err := ParseType("gemini"); err == nil {
		t.Error("ParseType(gemini) expected error")
	}
}

func TestExecArtifacts(t *testing.T) {
	req := testRequest()
	prompt := BuildPrompt(req, PromptDefault)

	tests := []struct {
		provider Provider
		prefix   string
		suffix   string
	}{
		{NewQoderProvider(nil), `qoder skill skill-repo-wiki --doc="repowiki/zh/content/api.md" --title="API" --prompt="`, `"`},
		{NewCursorProvider(nil), `cursor --task "`, `" --file "repowiki/zh/content/api.md"`},
		{NewAiderProvider(nil), `aider --message "`, `" --file "repowiki/zh/content/api.md" --yes`},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider.Descriptor().Type), func(t *testing.T) {
			art, err := tt.provider.Artifacts(req, PromptDefault)
			if err != nil {
				t.Fatalf("Artifacts() error = %v", err)
			}
			if art.Mode != ModeExec {
				t.Errorf("Mode = %v, want exec", art.Mode)
			}
			if !strings.HasPrefix(art.Shell, tt.prefix) {
				t.Errorf("Shell = %q, want prefix %q", art.Shell, tt.prefix)
			}
			if !strings.HasSuffix(art.Shell, tt.suffix) {
				t.Errorf("Shell = %q, want suffix %q", art.Shell, tt.suffix)
			}
			if !strings.Contains(art.Shell, shellQuote(prompt)) {
				t.Error("Shell does not contain the escaped prompt")
			}
		})
	}
}

func TestStdinArtifacts(t *testing.T) {
	req := testRequest()

	art, err := NewClaudeProvider(nil).Artifacts(req, PromptFallback)
	if err != nil {
		t.Fatal(err)
	}
	if art.Mode != ModeStdin || !slices.Equal(art.Args, []string{"--print", "-"}) {
		t.Errorf("claude artifacts = %+v", art)
	}
	if art.Prompt != BuildPrompt(req, PromptFallback) {
		t.Error("claude prompt should be the requested prompt kind")
	}

	art, err = NewCodexProvider(nil).Artifacts(req, PromptDefault)
	if err != nil {
		t.Fatal(err)
	}
	if art.Mode != ModeStdin || !slices.Equal(art.Args, []string{"exec", "--color", "never", "-"}) {
		t.Errorf("codex artifacts = %+v", art)
	}
}

func TestShellQuote_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	writeScript(t, dir, "qoder", `printf '%s\n' "$@" > "`+argsFile+`"`+"\n")
	prependPath(t, dir)

	req := Request{
		DocPath:       "repowiki/zh/content/q.md",
		Title:         `Say "hi" to $HOME and ` + "`whoami`" + ` \n`,
		WorkspaceRoot: dir,
	}

	res := NewQoderProvider(nil).Invoke(context.Background(), req)
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if args[0] != "skill" || args[1] != "skill-repo-wiki" {
		t.Errorf("args = %q", args[:2])
	}
	if want := "--title=" + req.Title; args[3] != want {
		t.Errorf("title arg = %q, want %q", args[3], want)
	}
}

func TestCustomProvider(t *testing.T) {
	_, err := NewCustomProvider(CustomConfig{Command: "my-agent"}, nil)
	if err == nil {
		t.Fatal("NewCustomProvider() without template expected error")
	}

	p, err := NewCustomProvider(CustomConfig{
		Command:  "my-agent",
		Template: `my-agent --title "{{TITLE}}" --out {{DOC_PATH}} --src {{SOURCE_FILES}} --p "{{PROMPT}}"`,
	}, nil)
	if err != nil {
		t.Fatalf("NewCustomProvider() error = %v", err)
	}

	d := p.Descriptor()
	if d.Type != TypeCustom || d.Priority != PriorityCustom || d.Mode != ModeExec || d.Command != "my-agent" {
		t.Errorf("Descriptor() = %+v", d)
	}

	req := testRequest()
	req.SourceFiles = []string{"a.go", "b.go"}
	art, err := p.Artifacts(req, PromptDefault)
	if err != nil {
		t.Fatal(err)
	}
	want := `my-agent --title "API" --out repowiki/zh/content/api.md --src a.go,b.go --p "` + BuildPrompt(req, PromptDefault) + `"`
	if art.Shell != want {
		t.Errorf("Shell = %q, want %q", art.Shell, want)
	}
}

func TestCustomProvider_PriorityOverride(t *testing.T) {
	p, err := NewCustomProvider(CustomConfig{Command: "x", Template: "x {{PROMPT}}", Priority: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Descriptor().Priority != 3 {
		t.Errorf("Priority = %d, want 3", p.Descriptor().Priority)
	}
}

func TestExecInvoke_LogsAndDoesNotWriteDocument(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "aider", "echo working\n")
	prependPath(t, dir)

	var logs []string
	req := Request{
		DocPath:       "repowiki/zh/content/a.md",
		Title:         "A",
		WorkspaceRoot: dir,
		Log:           func(msg string, always bool) { logs = append(logs, msg) },
	}

	res := NewAiderProvider(nil).Invoke(context.Background(), req)
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	if _, err := os.Stat(req.AbsDocPath()); !os.IsNotExist(err) {
		t.Error("exec-mode invoke should leave writing the document to the agent")
	}
	if !slices.Contains(logs, "working\n") {
		t.Errorf("logs = %q, want agent stdout echoed", logs)
	}
}
