package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/terminal"
)

func newAgentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List, detect and select documentation agents",
	}
	cmd.AddCommand(
		newAgentsListCmd(opts),
		newAgentsDetectCmd(opts),
		newAgentsUseCmd(opts),
		newAgentsPickCmd(opts),
	)
	return cmd
}

func newAgentsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported agents without probing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}
			pref := ws.store.PreferredAgent()
			var rows [][]string
			for _, p := range ws.registry.Known() {
				d := p.Descriptor()
				rows = append(rows, []string{
					preferredMark(d.Type, pref) + d.Name,
					string(d.Type),
					d.Command,
					d.Mode.String(),
					strconv.Itoa(d.Priority),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderTable(
				[]string{"Agent", "Type", "Command", "Mode", "Priority"}, rows))
			return nil
		},
	}
}

func newAgentsDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Probe which agents are installed and show the one that would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}

			stop := terminal.Start(terminal.NewPhaseSpinner("Probing agents").Run)
			statuses := ws.registry.DetectAvailable(ctx)
			stop()

			best := ws.registry.SelectBest(ctx)
			pref := ws.store.PreferredAgent()
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				avail := terminal.Styled(terminal.CellBad, "not found")
				if st.Available {
					avail = terminal.Styled(terminal.CellOK, "available")
				}
				version := st.Version
				if version == "" {
					version = "-"
				}
				name := preferredMark(st.Type, pref) + st.Name
				if best != nil && best.Descriptor().Type == st.Type {
					name += " ✓"
				}
				rows = append(rows, []string{name, st.Command, avail, version, strconv.Itoa(st.Priority)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderTable(
				[]string{"Agent", "Command", "Status", "Version", "Priority"}, rows))

			if best == nil {
				ws.logger.Log("No supported agent is installed", terminal.StyleWarning)
				return nil
			}
			ws.logger.Logf(terminal.StyleSuccess, "Active agent: %s", best.Descriptor().Name)
			return nil
		},
	}
}

func newAgentsUseCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "use <agent>",
		Short: "Set the preferred agent and save it to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := agent.ParseType(args[0])
			if err != nil {
				return err
			}
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}

			ws.registry.DetectAvailable(cmd.Context())
			if !ws.registry.SetActive(t) {
				if !force {
					return fmt.Errorf("agent %s is not available; install it or pass --force to save it anyway", t)
				}
				ws.logger.Logf(terminal.StyleWarning, "Agent %s is not available", t)
			}
			return savePreferred(ws, t)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Save the preference even if the agent is not installed")
	return cmd
}

func newAgentsPickCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose the preferred agent interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}

			statuses := ws.registry.DetectAvailable(cmd.Context())
			pref := ws.store.PreferredAgent()
			items := make([]terminal.PickerItem, len(statuses))
			start := 0
			for i, st := range statuses {
				detail := st.Command
				if st.Version != "" {
					detail += " " + st.Version
				}
				if !st.Available {
					detail += " (not found)"
				}
				items[i] = terminal.PickerItem{Label: st.Name, Detail: detail, Disabled: !st.Available}
				if st.Type == pref {
					start = i
				}
			}

			idx, err := terminal.RunPicker("Select the agent used to write documentation", items, start)
			if errors.Is(err, terminal.ErrNotInteractive) {
				return fmt.Errorf("%w; use `repowiki agents use <agent>` instead", err)
			}
			if err != nil {
				return err
			}
			if idx < 0 {
				terminal.Log("No change", terminal.StyleDim)
				return nil
			}
			t := statuses[idx].Type
			ws.registry.SetActive(t)
			return savePreferred(ws, t)
		},
	}
}

func savePreferred(ws *workspace, t agent.Type) error {
	if err := ws.store.SetPreferredAgent(t); err != nil {
		return err
	}
	ws.logger.Logf(terminal.StyleSuccess, "Preferred agent set to %s %s(%s)%s",
		t, terminal.Color(terminal.Dim), ws.store.Path(), terminal.Color(terminal.Reset))
	return nil
}

func preferredMark(t, pref agent.Type) string {
	if t == pref {
		return "* "
	}
	return ""
}
