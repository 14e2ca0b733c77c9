// Package agent provides the abstraction over external documentation agents.
//
// # Architecture
//
// The package is built around the Provider interface. Each provider knows how
// to turn a Request into an invocation in one of two modes:
//
//  1. Exec mode - a single shell command; the agent writes the document itself
//  2. Stdin mode - an argument list plus a prompt streamed over stdin; the
//     document is captured from stdout, validated and written by this package
//
// Process runs the child in either mode and always yields a Result value.
// Stdin-mode output that fails ValidateOutput is retried exactly once with
// the reduced fallback prompt before the item is reported as failed.
//
// # Registry
//
// Registry probes every provider with `<command> --version`, records which
// are available and selects the active one:
//
//	reg := agent.NewRegistry(prefs, agent.NewProcess(5*time.Minute, logger))
//	p := reg.SelectBest(ctx)
//	if p == nil {
//	    return agent.ErrNoActiveAgent
//	}
//
//	res := p.Invoke(ctx, agent.Request{
//	    DocPath:       "repowiki/zh/content/overview.md",
//	    Title:         "Overview",
//	    SourceFiles:   []string{"main.go"},
//	    WorkspaceRoot: root,
//	})
//
// # Current Implementations
//
// QoderProvider, CursorProvider, AiderProvider: exec mode
// ClaudeProvider, CodexProvider: stdin mode (codex embeds source contents)
// CustomProvider: exec mode from a user template
package agent
