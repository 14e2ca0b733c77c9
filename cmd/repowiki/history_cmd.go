package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/history"
	"github.com/richhaase/repowiki/internal/terminal"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "Show past generation batches, or the items of one batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}
			h := ws.historyIfExists()
			if h == nil {
				ws.logger.Log("No history yet; run `repowiki init` or `repowiki update`", terminal.StyleDim)
				return nil
			}
			defer h.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				batches, err := h.RecentBatches(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, batchTable(batches))
				return nil
			}

			b, err := h.FindBatch(ctx, args[0])
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("no batch matches %q", args[0])
			}
			gens, err := h.Generations(ctx, b.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, batchTable([]history.Batch{*b}))
			if len(gens) > 0 {
				fmt.Fprintln(out, generationTable(gens))
			}
			for _, e := range b.ErrorList() {
				fmt.Fprintf(out, "  %s•%s %s\n", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset), e)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of batches to show (0 for all)")
	return cmd
}

func batchTable(batches []history.Batch) string {
	rows := make([][]string, len(batches))
	for i, b := range batches {
		failed := strconv.Itoa(b.Failed)
		if b.Failed > 0 {
			failed = terminal.Styled(terminal.CellBad, failed)
		}
		rows[i] = []string{
			shortBatchID(b.ID),
			b.Operation,
			terminal.FormatTime(&b.StartedAt),
			strconv.Itoa(b.Succeeded),
			failed,
			strconv.Itoa(b.Skipped),
			terminal.FormatDuration(b.Duration()),
		}
	}
	return terminal.RenderTable([]string{"Batch", "Operation", "Started", "Succeeded", "Failed", "Skipped", "Duration"}, rows)
}

func generationTable(gens []history.Generation) string {
	rows := make([][]string, len(gens))
	for i, g := range gens {
		result := terminal.Styled(terminal.CellOK, "ok")
		switch {
		case g.TimedOut:
			result = terminal.Styled(terminal.CellBad, "timed out")
		case !g.Success:
			result = terminal.Styled(terminal.CellBad, "failed")
		}
		rows[i] = []string{g.Title, g.Status, g.Agent, result, terminal.FormatDuration(g.Duration())}
	}
	return terminal.RenderTable([]string{"Title", "Was", "Agent", "Result", "Duration"}, rows)
}

func shortBatchID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
