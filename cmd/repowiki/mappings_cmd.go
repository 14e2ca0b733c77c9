package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/mapping"
	"github.com/richhaase/repowiki/internal/terminal"
)

func newMappingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Show and discover source-to-page mappings",
	}
	cmd.AddCommand(newMappingsListCmd(opts), newMappingsScanCmd(opts))
	return cmd
}

func newMappingsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the mappings in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ms := ws.store.Mappings()
			fmt.Fprintln(cmd.OutOrStdout(), mappingTable(ws.cfg.DocsRoot, ms))
			if !ws.store.HasConfiguredMappings() {
				ws.logger.Log("No doc_mappings configured; showing the default set", terminal.StyleDim)
			}
			return nil
		},
	}
}

func newMappingsScanCmd(opts *rootOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "scan <glob>...",
		Short: "Propose mappings for source files matching globs",
		Long: `Propose one mapping per file matched by the given globs (` + "`**`" + ` matches any
depth). Files already mapped or matched by exclude_patterns are skipped.
With --write the proposals are appended to doc_mappings in the config file.`,
		Example: `  repowiki mappings scan 'internal/**/*.go'
  repowiki mappings scan 'cmd/*/main.go' --write`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}

			var existing []mapping.Mapping
			if ws.store.HasConfiguredMappings() {
				existing = ws.store.Mappings()
			}
			found, err := mapping.Scan(ws.root, mapping.ScanOptions{
				Patterns: args,
				Exclude:  ws.cfg.ExcludePatterns,
				Existing: existing,
			})
			if err != nil {
				return err
			}
			if len(found) == 0 {
				ws.logger.Log("No new source files matched", terminal.StyleDim)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), mappingTable(ws.cfg.DocsRoot, found))
			if !write {
				ws.logger.Logf(terminal.StyleInfo, "%d new %s; rerun with --write to save",
					len(found), terminal.Plural(len(found), "mapping"))
				return nil
			}

			if err := ws.store.SetMappings(append(existing, found...)); err != nil {
				return err
			}
			ws.logger.Logf(terminal.StyleSuccess, "Added %d %s to %s",
				len(found), terminal.Plural(len(found), "mapping"), ws.store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Append the proposed mappings to the config file")
	return cmd
}

func mappingTable(docsRoot string, ms []mapping.Mapping) string {
	rows := make([][]string, len(ms))
	for i, m := range ms {
		rows[i] = []string{m.Title, m.Source, path.Join(docsRoot, m.Doc)}
	}
	return terminal.RenderTable([]string{"Title", "Source", "Page"}, rows)
}
