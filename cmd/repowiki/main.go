// Package main provides the CLI entry point for repowiki.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/domain"
	"github.com/richhaase/repowiki/internal/terminal"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	workspace string
	agentName string
	timeout   time.Duration
	docsRoot  string
	verbose   bool
	noConfig  bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	terminal.SetColorsEnabled(terminal.ShouldUseColor())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			terminal.Log("Interrupted, shutting down...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
	}()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code.Int()
		}
		if errors.Is(err, context.Canceled) {
			return domain.ExitInterrupted.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "repowiki",
		Short: "Keep a repository wiki in sync with its sources",
		Long: `Generate and maintain documentation pages for source files using an external AI agent.

Each mapping pairs a source file with a wiki page. Pages are regenerated when
their source is newer than the page.

Exit codes:
  0 - All pages generated or up to date
  1 - Some pages failed
  2 - Error
  130 - Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.workspace, "workspace", "w", "",
		"Workspace directory (default: git root of the current directory)")
	pf.StringVarP(&opts.agentName, "agent", "a", "",
		"Preferred agent: qoder, claude, codex, cursor, aider, custom (env: REPOWIKI_PREFERRED_AGENT)")
	pf.DurationVarP(&opts.timeout, "timeout", "t", 0,
		"Timeout per agent invocation (default: 5m, env: REPOWIKI_TIMEOUT)")
	pf.StringVar(&opts.docsRoot, "docs-root", "",
		"Wiki directory relative to the workspace (default: repowiki, env: REPOWIKI_DOCS_ROOT)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Print agent output and diagnostics")
	pf.BoolVar(&opts.noConfig, "no-config", false,
		"Skip loading .repowiki.yaml / .repowiki.toml")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newUpdateCmd(opts),
		newRegenerateCmd(opts),
		newStatusCmd(opts),
		newAgentsCmd(opts),
		newMappingsCmd(opts),
		newHistoryCmd(opts),
		newWatchCmd(opts),
		newConfigCmd(opts),
	)

	setGroupedUsage(rootCmd)
	return rootCmd
}
