package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/generator"
	"github.com/richhaase/repowiki/internal/mapping"
	"github.com/richhaase/repowiki/internal/terminal"
	"github.com/richhaase/repowiki/internal/watch"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Update pages automatically when their sources change",
		Long: `Watch every mapped source file and update its page after changes settle
(auto_update.delay, default 1s). Sources matching exclude_patterns are not
watched. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if !ws.cfg.AutoUpdateEnabled && !force {
				ws.logger.Log("auto_update.enabled is false; pass --force to watch anyway", terminal.StyleWarning)
				return nil
			}

			ms, err := mapping.Excluding(ws.root, ws.store.Mappings(), ws.cfg.ExcludePatterns)
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				ws.logger.Log("No mapped sources to watch", terminal.StyleWarning)
				return nil
			}

			ws.selectAgent(ctx)
			gen, release, err := ws.prepare()
			if err != nil {
				return err
			}
			defer release()

			handler := func(ctx context.Context, changed []mapping.Mapping) {
				updateChanged(ctx, cmd, ws, gen, changed)
			}
			w := watch.New(ws.root, ms, handler, watch.Options{
				Delay:  ws.cfg.AutoUpdateDelay,
				Logger: ws.logger,
			})
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Watch even when auto_update.enabled is false")
	return cmd
}

// updateChanged runs one update batch for the changed mappings under the
// workspace lock.
func updateChanged(ctx context.Context, cmd *cobra.Command, ws *workspace, gen *generator.Generator, changed []mapping.Mapping) {
	ws.logger.Logf(terminal.StyleInfo, "Detected changes in %d %s",
		len(changed), terminal.Plural(len(changed), "source"))

	l, err := ws.acquireLock(ctx, true)
	if err != nil {
		ws.logger.Logf(terminal.StyleWarning, "Skipping update: %v", err)
		return
	}
	defer func() { _ = l.Release() }()

	spinner := terminal.NewSpinner("Update complete")
	stop := terminal.Start(spinner.Run)
	batch, err := gen.UpdateMappings(ctx, changed, spinner)
	stop()
	if err != nil {
		if ctx.Err() == nil {
			ws.logger.Logf(terminal.StyleError, "Update failed: %v", err)
		}
		return
	}
	if batch.Success+batch.Failed == 0 {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), generator.RenderSummary(batch))
}
