package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxEmbeddedChars is the per-file ceiling for source embedded in a prompt.
const MaxEmbeddedChars = 30000

// CodexProvider streams the prompt to `codex exec` with the source contents
// embedded, so the agent does not need file-system access of its own.
type CodexProvider struct{ base }

// NewCodexProvider creates a CodexProvider.
func NewCodexProvider(proc *Process) *CodexProvider {
	return &CodexProvider{newBase(Descriptor{
		Type: TypeCodex, Name: "Codex CLI", Command: "codex", Priority: PriorityCodex, Mode: ModeStdin,
	}, proc)}
}

// Artifacts returns the codex argument list and a prompt with every source
// file appended. The caller's request is not modified.
func (c *CodexProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	local := req.Clone()
	prompt := BuildPrompt(local, kind) + embedSources(local.WorkspaceRoot, local.SourceFiles)
	return Artifacts{
		Mode:   ModeStdin,
		Args:   []string{"exec", "--color", "never", "-"},
		Prompt: prompt,
	}, nil
}

// Invoke runs codex for req and writes the validated output to the document.
func (c *CodexProvider) Invoke(ctx context.Context, req Request) Result {
	return c.invoke(ctx, req, c.Artifacts)
}

// embedSources renders each file as a fenced block. Unreadable files are
// noted in place.
func embedSources(root string, files []string) string {
	if len(files) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n## Source file contents\n")
	for _, f := range files {
		data, err := os.ReadFile(resolvePath(root, f))
		if err != nil {
			fmt.Fprintf(&b, "\n### %s\n\n(could not read file: %v)\n", f, err)
			continue
		}
		content, truncated := truncateChars(string(data), MaxEmbeddedChars)
		fence := codeFence(content)
		fmt.Fprintf(&b, "\n### %s\n\n%s%s\n%s", f, fence, fenceLanguage(f), content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
		if truncated {
			fmt.Fprintf(&b, "... [truncated after %d characters]\n", MaxEmbeddedChars)
		}
		b.WriteString(fence + "\n")
	}
	return b.String()
}

func truncateChars(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// codeFence returns a backtick fence longer than any run inside content.
func codeFence(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

func fenceLanguage(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch ext {
	case "ts", "tsx":
		return "typescript"
	case "js", "jsx", "mjs":
		return "javascript"
	case "py":
		return "python"
	case "rs":
		return "rust"
	case "rb":
		return "ruby"
	case "yml":
		return "yaml"
	case "md":
		return "markdown"
	case "sh":
		return "bash"
	}
	return ext
}
