package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagGroup defines a named group of flags for help output.
type flagGroup struct {
	title string
	flags []string
}

// flagGroups defines the logical groupings for the global flags.
// Command flags are listed first under "Flags"; help and version go under
// "Other Flags".
var flagGroups = []flagGroup{
	{
		title: "Workspace",
		flags: []string{"workspace", "docs-root", "no-config"},
	},
	{
		title: "Agent Settings",
		flags: []string{"agent", "timeout"},
	},
	{
		title: "Output",
		flags: []string{"verbose"},
	},
}

var otherFlags = map[string]bool{"help": true, "version": true}

// setGroupedUsage configures the command, and every subcommand, to display
// flags in logical groups.
func setGroupedUsage(cmd *cobra.Command) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		out := c.OutOrStderr()
		fmt.Fprintf(out, "Usage:\n  %s\n", c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintf(out, "  %s [command]\n", c.CommandPath())
		}

		if c.HasExample() {
			fmt.Fprintf(out, "\nExamples:\n%s\n", c.Example)
		}

		if c.HasAvailableSubCommands() {
			fmt.Fprintf(out, "\nAvailable Commands:\n")
			for _, sub := range c.Commands() {
				if !sub.IsAvailableCommand() {
					continue
				}
				fmt.Fprintf(out, "  %-*s %s\n", c.NamePadding(), sub.Name(), sub.Short)
			}
		}

		all := allFlags(c)
		grouped := make(map[string]bool)
		for _, group := range flagGroups {
			for _, name := range group.flags {
				grouped[name] = true
			}
		}

		// Command-specific flags first.
		local := pflag.NewFlagSet("flags", pflag.ContinueOnError)
		all.VisitAll(func(f *pflag.Flag) {
			if !grouped[f.Name] && !otherFlags[f.Name] {
				local.AddFlag(f)
			}
		})
		if usages := local.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(out, "\nFlags:\n%s", usages)
		}

		for _, group := range flagGroups {
			fs := pflag.NewFlagSet(group.title, pflag.ContinueOnError)
			for _, name := range group.flags {
				if f := all.Lookup(name); f != nil {
					fs.AddFlag(f)
				}
			}
			if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
				fmt.Fprintf(out, "\n%s:\n%s", group.title, usages)
			}
		}

		other := pflag.NewFlagSet("other", pflag.ContinueOnError)
		all.VisitAll(func(f *pflag.Flag) {
			if otherFlags[f.Name] {
				other.AddFlag(f)
			}
		})
		if usages := other.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(out, "\nOther Flags:\n%s", usages)
		}

		if c.HasAvailableSubCommands() {
			fmt.Fprintf(out, "\nUse \"%s [command] --help\" for more information about a command.\n", c.CommandPath())
		}
		return nil
	})
}

// allFlags merges a command's own flags with the persistent flags it inherits.
func allFlags(c *cobra.Command) *pflag.FlagSet {
	all := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	add := func(f *pflag.Flag) {
		if all.Lookup(f.Name) == nil {
			all.AddFlag(f)
		}
	}
	c.LocalFlags().VisitAll(add)
	c.InheritedFlags().VisitAll(add)
	return all
}
