package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/generator"
	"github.com/richhaase/repowiki/internal/terminal"
)

// batchFunc is one of the Generator batch operations.
type batchFunc func(g *generator.Generator, ctx context.Context, p generator.Progress) (generator.BatchResult, error)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the wiki and generate every page",
		Long: `Create the wiki layout (content and meta directories plus the skill.md style
guide) if it does not exist, then generate a page for every mapping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts, "Initialization", (*generator.Generator).Initialize)
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Generate missing pages and refresh outdated ones",
		Long:  "Generate pages that are missing or older than their source. Up-to-date pages are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts, "Update", (*generator.Generator).Update)
		},
	}
}

func newRegenerateCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Delete all generated pages and generate them again",
		Long:  "Remove the generated content directory and generate every page from scratch. The meta directory and history are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && terminal.IsStdinTTY() {
				fmt.Fprint(cmd.ErrOrStderr(), "This deletes every generated page. Continue? [y/N] ")
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" && answer != "yes" {
					terminal.Log("Regeneration cancelled", terminal.StyleDim)
					return nil
				}
			}
			return runBatch(cmd, opts, "Regeneration", (*generator.Generator).Regenerate)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// runBatch runs one batch operation under the workspace lock with a spinner
// and prints its summary.
func runBatch(cmd *cobra.Command, opts *rootOptions, label string, run batchFunc) error {
	ctx := cmd.Context()

	ws, err := opts.open(cmd)
	if err != nil {
		return err
	}
	l, err := ws.acquireLock(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	ws.selectAgent(ctx)

	spinner := terminal.NewSpinner(label + " complete")
	gen, release, err := ws.prepare()
	if err != nil {
		return err
	}
	defer release()

	stop := terminal.Start(spinner.Run)
	batch, err := run(gen, ctx, spinner)
	stop()

	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), generator.RenderSummary(batch))
	}
	return batchExitCode(ctx, batch, err)
}
