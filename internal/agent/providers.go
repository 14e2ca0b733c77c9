package agent

import (
	"context"
	"fmt"
	"strings"
)

// Compile-time interface checks
var (
	_ Provider = (*QoderProvider)(nil)
	_ Provider = (*ClaudeProvider)(nil)
	_ Provider = (*CodexProvider)(nil)
	_ Provider = (*CursorProvider)(nil)
	_ Provider = (*AiderProvider)(nil)
	_ Provider = (*CustomProvider)(nil)
)

// Default selection priorities; lower is preferred.
const (
	PriorityQoder  = 1
	PriorityClaude = 2
	PriorityCodex  = 3
	PriorityCursor = 4
	PriorityAider  = 5
	PriorityCustom = 100
)

// QoderProvider drives the Qoder CLI repo-wiki skill in exec mode.
type QoderProvider struct{ base }

// NewQoderProvider creates a QoderProvider.
func NewQoderProvider(proc *Process) *QoderProvider {
	return &QoderProvider{newBase(Descriptor{
		Type: TypeQoder, Name: "Qoder CLI", Command: "qoder", Priority: PriorityQoder, Mode: ModeExec,
	}, proc)}
}

// Artifacts builds the qoder command line.
func (q *QoderProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	shell := fmt.Sprintf(`qoder skill skill-repo-wiki --doc="%s" --title="%s" --prompt="%s"`,
		shellQuote(req.DocPath), shellQuote(req.Title), shellQuote(BuildPrompt(req, kind)))
	return Artifacts{Mode: ModeExec, Shell: shell}, nil
}

// Invoke runs qoder for req.
func (q *QoderProvider) Invoke(ctx context.Context, req Request) Result {
	return q.invoke(ctx, req, q.Artifacts)
}

// ClaudeProvider streams the prompt to `claude --print -` and captures the
// document from stdout.
type ClaudeProvider struct{ base }

// NewClaudeProvider creates a ClaudeProvider.
func NewClaudeProvider(proc *Process) *ClaudeProvider {
	return &ClaudeProvider{newBase(Descriptor{
		Type: TypeClaude, Name: "Claude CLI", Command: "claude", Priority: PriorityClaude, Mode: ModeStdin,
	}, proc)}
}

// Artifacts returns the claude argument list and prompt.
// -: Read prompt from stdin (avoids ARG_MAX limits on long prompts)
func (c *ClaudeProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	return Artifacts{
		Mode:   ModeStdin,
		Args:   []string{"--print", "-"},
		Prompt: BuildPrompt(req, kind),
	}, nil
}

// Invoke runs claude for req and writes the validated output to the document.
func (c *ClaudeProvider) Invoke(ctx context.Context, req Request) Result {
	return c.invoke(ctx, req, c.Artifacts)
}

// CursorProvider drives the Cursor CLI in exec mode.
type CursorProvider struct{ base }

// NewCursorProvider creates a CursorProvider.
func NewCursorProvider(proc *Process) *CursorProvider {
	return &CursorProvider{newBase(Descriptor{
		Type: TypeCursor, Name: "Cursor CLI", Command: "cursor", Priority: PriorityCursor, Mode: ModeExec,
	}, proc)}
}

// Artifacts builds the cursor command line.
func (c *CursorProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	shell := fmt.Sprintf(`cursor --task "%s" --file "%s"`,
		shellQuote(BuildPrompt(req, kind)), shellQuote(req.DocPath))
	return Artifacts{Mode: ModeExec, Shell: shell}, nil
}

// Invoke runs cursor for req.
func (c *CursorProvider) Invoke(ctx context.Context, req Request) Result {
	return c.invoke(ctx, req, c.Artifacts)
}

// AiderProvider drives aider in exec mode.
type AiderProvider struct{ base }

// NewAiderProvider creates an AiderProvider.
func NewAiderProvider(proc *Process) *AiderProvider {
	return &AiderProvider{newBase(Descriptor{
		Type: TypeAider, Name: "Aider CLI", Command: "aider", Priority: PriorityAider, Mode: ModeExec,
	}, proc)}
}

// Artifacts builds the aider command line.
func (a *AiderProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	shell := fmt.Sprintf(`aider --message "%s" --file "%s" --yes`,
		shellQuote(BuildPrompt(req, kind)), shellQuote(req.DocPath))
	return Artifacts{Mode: ModeExec, Shell: shell}, nil
}

// Invoke runs aider for req.
func (a *AiderProvider) Invoke(ctx context.Context, req Request) Result {
	return a.invoke(ctx, req, a.Artifacts)
}

var shellQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// shellQuote escapes s for use inside a double-quoted sh word.
func shellQuote(s string) string {
	return shellQuoter.Replace(s)
}
