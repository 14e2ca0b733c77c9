package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/docstatus"
	"github.com/richhaase/repowiki/internal/git"
	"github.com/richhaase/repowiki/internal/terminal"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var staleOnly bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which pages are missing, outdated or up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}

			records, err := ws.generator(nil).Checker().CheckAll(ctx, ws.store.Mappings())
			if err != nil {
				return err
			}

			var modified map[string]bool
			if repo, err := git.Open(ws.root); err == nil {
				if modified, err = repo.Modified(); err != nil {
					ws.diag.Debug("worktree status unavailable", "error", err)
				}
			}

			h := ws.historyIfExists()
			if h != nil {
				defer h.Close()
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				if staleOnly && !rec.Status.NeedsWork() {
					continue
				}
				last := "-"
				if h != nil {
					if gen, err := h.LastSuccess(ctx, rec.Mapping.Doc); err == nil && gen != nil {
						last = fmt.Sprintf("%s (%s)", terminal.FormatTime(&gen.CreatedAt), gen.Agent)
					}
				}
				rows = append(rows, []string{
					rec.Mapping.Title,
					rec.Mapping.Source,
					path.Join(ws.cfg.DocsRoot, rec.Mapping.Doc),
					statusCell(rec),
					last,
					strings.Join(notes(rec, modified), ", "),
				})
			}

			out := cmd.OutOrStdout()
			if len(rows) > 0 {
				fmt.Fprintln(out, terminal.RenderTable(
					[]string{"Title", "Source", "Page", "Status", "Last generated", "Notes"}, rows))
			}
			fmt.Fprintln(out, summaryLine(docstatus.Summarize(records)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&staleOnly, "stale", false, "Only list pages that are missing or outdated")
	return cmd
}

func statusCell(rec docstatus.Record) string {
	switch rec.Status {
	case docstatus.Missing:
		return terminal.Styled(terminal.CellBad, "missing")
	case docstatus.Outdated:
		return terminal.Styled(terminal.CellWarn, "outdated")
	default:
		return terminal.Styled(terminal.CellOK, "up to date")
	}
}

// notes flags conditions the status alone does not show.
func notes(rec docstatus.Record, modified map[string]bool) []string {
	var out []string
	if rec.SourceMissing() {
		out = append(out, "source missing")
	} else if modified[path.Clean(filepath.ToSlash(rec.Mapping.Source))] {
		out = append(out, "uncommitted changes")
	}
	return out
}

func summaryLine(s docstatus.Summary) string {
	line := fmt.Sprintf("%d %s: %d up to date, %d outdated, %d missing",
		s.Total(), terminal.Plural(s.Total(), "page"), s.UpToDate, s.Outdated, s.Missing)
	if s.SourceMissing > 0 {
		line += fmt.Sprintf(" (%d with missing source)", s.SourceMissing)
	}
	return line
}
