package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/config"
	"github.com/richhaase/repowiki/internal/terminal"
)

const starterYAML = `# repowiki configuration file

# Agent used to write pages: qoder, claude, codex, cursor, aider, custom.
# When unset, the installed agent with the lowest priority is used.
# preferred_agent: claude

# Timeout per agent invocation, Go duration format (default: 5m)
# timeout: 5m

# Any command that writes the page itself. Both command and template are
# required. Placeholders: {{PROMPT}}, {{DOC_PATH}}, {{TITLE}}, {{SOURCE_FILES}}.
# custom_agent:
#   command: my-agent
#   template: 'my-agent --prompt "{{PROMPT}}" --out {{DOC_PATH}}'
#   priority: 100

# Source files and the pages that describe them. Doc paths are relative to
# docs.root. Use "repowiki mappings scan" to generate entries.
# doc_mappings:
#   - source: cmd/app/main.go
#     doc: zh/content/cmd/app/main.md
#     title: Cmd / App / Main

# Sources matching these globs are never proposed by scan or watched.
# exclude_patterns:
#   - "**/*_test.go"

# docs:
#   root: repowiki
#   template: ""   # style guide copied to <root>/skill.md

# auto_update:
#   enabled: true
#   delay: 1s
`

const starterTOML = `# repowiki configuration file

# Agent used to write pages: qoder, claude, codex, cursor, aider, custom.
# preferred_agent = "claude"

# Timeout per agent invocation (default: 5m)
# timeout = "5m"

# exclude_patterns = ["**/*_test.go"]

# [custom_agent]
# command = "my-agent"
# template = 'my-agent --prompt "{{PROMPT}}" --out {{DOC_PATH}}'
# priority = 100

# [[doc_mappings]]
# source = "cmd/app/main.go"
# doc = "zh/content/cmd/app/main.md"
# title = "Cmd / App / Main"

# [docs]
# root = "repowiki"
# template = ""

# [auto_update]
# enabled = true
# delay = "1s"
`

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage repowiki configuration",
		Long:  "View, initialize, and validate repowiki configuration files and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigValidateCmd(opts))

	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, environment variables and flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := opts.open(cmd)
			if err != nil {
				return err
			}
			printResolved(cmd.OutOrStdout(), ws)
			return nil
		},
	}
}

func printResolved(out io.Writer, ws *workspace) {
	r := ws.cfg
	orDefault := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}

	fmt.Fprintln(out, "Resolved configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-22s %s\n", "workspace:", ws.root)
	fmt.Fprintf(out, "  %-22s %s\n", "config file:", ws.store.Path())
	fmt.Fprintf(out, "  %-22s %s\n", "preferred_agent:", orDefault(string(r.PreferredAgent), "(auto)"))
	fmt.Fprintf(out, "  %-22s %s\n", "timeout:", r.Timeout)
	fmt.Fprintf(out, "  %-22s %s\n", "custom_agent.command:", orDefault(r.Custom.Command, "(none)"))
	if r.Custom.Command != "" {
		fmt.Fprintf(out, "  %-22s %s\n", "custom_agent.template:", orDefault(r.Custom.Template, "(none, agent disabled)"))
		priority := r.Custom.Priority
		if priority == 0 {
			priority = agent.PriorityCustom
		}
		fmt.Fprintf(out, "  %-22s %d\n", "custom_agent.priority:", priority)
	}
	mappings := fmt.Sprintf("%d", len(ws.store.Mappings()))
	if !ws.store.HasConfiguredMappings() {
		mappings += " (defaults)"
	}
	fmt.Fprintf(out, "  %-22s %s\n", "doc_mappings:", mappings)
	fmt.Fprintf(out, "  %-22s %v\n", "exclude_patterns:", r.ExcludePatterns)
	fmt.Fprintf(out, "  %-22s %s\n", "docs.root:", r.DocsRoot)
	fmt.Fprintf(out, "  %-22s %s\n", "docs.template:", orDefault(r.DocsTemplate, "(install location)"))
	fmt.Fprintf(out, "  %-22s %t\n", "auto_update.enabled:", r.AutoUpdateEnabled)
	fmt.Fprintf(out, "  %-22s %s\n", "auto_update.delay:", r.AutoUpdateDelay)
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var useTOML bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config file",
		Long:  "Create a commented .repowiki.yaml (or .repowiki.toml) in the workspace root.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}

			for _, name := range []string{config.ConfigFileName, config.TOMLFileName} {
				if p := filepath.Join(root, name); fileExists(p) {
					return fmt.Errorf("%s already exists; remove it first or edit it directly", p)
				}
			}

			name, starter := config.ConfigFileName, starterYAML
			if useTOML {
				name, starter = config.TOMLFileName, starterTOML
			}
			configPath := filepath.Join(root, name)
			if err := os.WriteFile(configPath, []byte(starter), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default settings (commented out).\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useTOML, "toml", false, "Write .repowiki.toml instead of .repowiki.yaml")
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate the config file and environment variables, reporting any warnings or errors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := terminal.NewLogger()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			if err := config.LoadDotEnv(root); err != nil {
				logger.Logf(terminal.StyleWarning, "%v", err)
			}

			var errs []string
			var warnings []string

			// Keep going after a file error so env var issues are also reported.
			cfg := &config.Config{}
			configFileError := false
			result, err := config.LoadFromDirWithWarnings(root)
			if err != nil {
				errs = append(errs, fmt.Sprintf("config file: %v", err))
				configFileError = true
			}
			if result != nil {
				cfg = result.Config
				warnings = append(warnings, result.Warnings...)
			}

			// Unparseable env vars are ignored at runtime, but here they are errors.
			errs = append(errs, config.EnvWarnings()...)

			resolveConfig := cfg
			if configFileError {
				resolveConfig = &config.Config{}
			}
			resolved := config.Resolve(resolveConfig, config.LoadEnvState(), config.FlagState{}, config.Defaults)
			if err := resolved.Validate(); err != nil {
				errs = append(errs, err.Error())
			}
			if resolved.DocsTemplate != "" {
				p := resolved.DocsTemplate
				if !filepath.IsAbs(p) {
					p = filepath.Join(root, p)
				}
				if !fileExists(p) {
					warnings = append(warnings, fmt.Sprintf("docs.template %s does not exist; the built-in template will be used", p))
				}
			}

			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "Config: %s", w)
			}
			for _, e := range errs {
				logger.Logf(terminal.StyleError, "%s", e)
			}

			if len(errs) > 0 {
				return fmt.Errorf("configuration has %d error(s)", len(errs))
			}
			if len(warnings) > 0 {
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			} else {
				logger.Log("Configuration is valid.", terminal.StyleSuccess)
			}
			return nil
		},
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
