package agent

import (
	"context"
	"errors"
	"strings"
)

// Custom command template placeholders.
const (
	PlaceholderPrompt      = "{{PROMPT}}"
	PlaceholderDocPath     = "{{DOC_PATH}}"
	PlaceholderTitle       = "{{TITLE}}"
	PlaceholderSourceFiles = "{{SOURCE_FILES}}"
)

// CustomConfig describes a user-configured agent.
type CustomConfig struct {
	Command  string
	Template string
	// Priority overrides PriorityCustom when positive.
	Priority int
}

// Configured reports whether both command and template are set.
func (c CustomConfig) Configured() bool {
	return strings.TrimSpace(c.Command) != "" && strings.TrimSpace(c.Template) != ""
}

// CustomProvider runs a user-supplied command template in exec mode.
type CustomProvider struct{ base }

// NewCustomProvider creates a CustomProvider from cfg.
func NewCustomProvider(cfg CustomConfig, proc *Process) (*CustomProvider, error) {
	if !cfg.Configured() {
		return nil, errors.New("custom agent requires both command and template")
	}
	priority := PriorityCustom
	if cfg.Priority > 0 {
		priority = cfg.Priority
	}
	return &CustomProvider{newBase(Descriptor{
		Type:     TypeCustom,
		Name:     "Custom Command",
		Command:  strings.TrimSpace(cfg.Command),
		Priority: priority,
		Mode:     ModeExec,
		Template: cfg.Template,
	}, proc)}, nil
}

// Artifacts substitutes the request into the template. Values are inserted
// verbatim; quoting is the template author's responsibility.
func (c *CustomProvider) Artifacts(req Request, kind PromptKind) (Artifacts, error) {
	shell := strings.NewReplacer(
		PlaceholderPrompt, BuildPrompt(req, kind),
		PlaceholderDocPath, req.DocPath,
		PlaceholderTitle, req.Title,
		PlaceholderSourceFiles, strings.Join(req.SourceFiles, ","),
	).Replace(c.desc.Template)
	return Artifacts{Mode: ModeExec, Shell: shell}, nil
}

// Invoke runs the custom command for req.
func (c *CustomProvider) Invoke(ctx context.Context, req Request) Result {
	return c.invoke(ctx, req, c.Artifacts)
}
