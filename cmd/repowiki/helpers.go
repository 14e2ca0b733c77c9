package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/config"
	"github.com/richhaase/repowiki/internal/domain"
	"github.com/richhaase/repowiki/internal/generator"
	"github.com/richhaase/repowiki/internal/git"
	"github.com/richhaase/repowiki/internal/history"
	"github.com/richhaase/repowiki/internal/lock"
	"github.com/richhaase/repowiki/internal/terminal"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitFailures:
		return "some pages failed to generate"
	case domain.ExitError:
		return "command failed with error"
	case domain.ExitInterrupted:
		return "command was interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitOK {
		return nil
	}
	return exitCodeError{code: code}
}

// workspace bundles everything a command needs to operate on one workspace.
type workspace struct {
	root     string
	store    *config.Store
	cfg      config.ResolvedConfig
	logger   *terminal.Logger
	diag     *slog.Logger
	registry *agent.Registry
}

// resolveRoot returns the explicit workspace, or the git root of the
// current directory.
func (o *rootOptions) resolveRoot() (string, error) {
	if o.workspace != "" {
		abs, err := filepath.Abs(o.workspace)
		if err != nil {
			return "", err
		}
		st, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("workspace: %w", err)
		}
		if !st.IsDir() {
			return "", fmt.Errorf("workspace %s is not a directory", abs)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return git.GetRoot(cwd)
}

// open loads configuration for the workspace and builds the agent registry.
func (o *rootOptions) open(cmd *cobra.Command) (*workspace, error) {
	logger := terminal.NewLogger()
	logger.SetVerbose(o.verbose)
	diag := terminal.NewDiagLogger(os.Stderr, o.verbose)

	root, err := o.resolveRoot()
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(root); err != nil {
		logger.Logf(terminal.StyleWarning, "%v", err)
	}

	flagValues := config.ResolvedConfig{
		Timeout:  o.timeout,
		DocsRoot: o.docsRoot,
	}
	if cmd.Flags().Changed("agent") {
		t, err := agent.ParseType(o.agentName)
		if err != nil {
			return nil, err
		}
		flagValues.PreferredAgent = t
	}

	store, err := config.Open(root, config.OpenOptions{
		NoConfig: o.noConfig,
		Env:      config.LoadEnvState(),
		Flags: config.FlagState{
			AgentSet:    cmd.Flags().Changed("agent"),
			TimeoutSet:  cmd.Flags().Changed("timeout"),
			DocsRootSet: cmd.Flags().Changed("docs-root"),
		},
		FlagValues: flagValues,
	})
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	for _, w := range store.Warnings() {
		logger.Logf(terminal.StyleWarning, "Warning: %s", w)
	}

	cfg := store.Resolved()
	diag.Debug("workspace opened", "root", root, "config", store.Path(), "docs_root", cfg.DocsRoot, "timeout", cfg.Timeout)

	proc := agent.NewProcess(cfg.Timeout, diag)
	return &workspace{
		root:     root,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		diag:     diag,
		registry: agent.NewRegistry(store, proc),
	}, nil
}

// generator builds a Generator for the workspace. h may be nil.
func (w *workspace) generator(h *history.Store) *generator.Generator {
	opts := generator.Options{
		WorkspaceRoot: w.root,
		DocsRoot:      w.cfg.DocsRoot,
		Template:      w.cfg.DocsTemplate,
		Logger:        w.logger,
		Diag:          w.diag,
	}
	if h != nil {
		opts.Recorder = h
	}
	return generator.New(w.registry, w.store, opts)
}

// selectAgent picks the active agent and reports the choice. With no agent
// available every generated item fails, so this only warns.
func (w *workspace) selectAgent(ctx context.Context) agent.Provider {
	p := w.registry.SelectBest(ctx)
	if p == nil {
		w.logger.Log("No supported agent found on PATH; pages that need work will fail", terminal.StyleWarning)
		return nil
	}
	d := p.Descriptor()
	if pref := w.store.PreferredAgent(); pref != "" && pref != d.Type {
		w.logger.Logf(terminal.StyleWarning, "Preferred agent %s is not available", pref)
	}
	w.logger.Logf(terminal.StyleInfo, "Using agent %s%s%s %s(%s)%s",
		terminal.Color(terminal.Bold), d.Name, terminal.Color(terminal.Reset),
		terminal.Color(terminal.Dim), d.Command, terminal.Color(terminal.Reset))
	return p
}

func (w *workspace) historyPath() string {
	return filepath.Join(w.root, w.cfg.DocsRoot, filepath.FromSlash(generator.MetaDir), history.FileName)
}

// openHistory opens the history database in the meta directory. Failure is
// logged and leaves history disabled.
func (w *workspace) openHistory() *history.Store {
	store, err := history.Open(history.Config{Path: w.historyPath(), Diag: w.diag})
	if err != nil {
		w.logger.Logf(terminal.StyleWarning, "History disabled: %v", err)
		return nil
	}
	return store
}

// historyIfExists opens the history database only when it already exists.
func (w *workspace) historyIfExists() *history.Store {
	if _, err := os.Stat(w.historyPath()); err != nil {
		return nil
	}
	return w.openHistory()
}

// prepare creates the meta directory, then returns a Generator that records
// into the history database. release closes the database. The wiki layout
// itself is left to Initialize and Regenerate.
func (w *workspace) prepare() (*generator.Generator, func(), error) {
	if err := w.generator(nil).EnsureMeta(); err != nil {
		return nil, nil, err
	}
	h := w.openHistory()
	release := func() {
		if h != nil {
			_ = h.Close()
		}
	}
	return w.generator(h), release, nil
}

// acquireLock takes the workspace lock, waiting for it when wait is set,
// and keeps the lock file out of git.
func (w *workspace) acquireLock(ctx context.Context, wait bool) (*lock.Lock, error) {
	var l *lock.Lock
	var err error
	if wait {
		l, err = lock.AcquireContext(ctx, w.root)
	} else {
		l, err = lock.Acquire(w.root)
	}
	if err != nil {
		return nil, err
	}
	if repo, err := git.Open(w.root); err == nil {
		if err := repo.EnsureExcluded(lock.FileName); err != nil {
			w.diag.Debug("could not exclude lock file", "error", err)
		}
	}
	return l, nil
}

// batchExitCode maps a batch outcome to the command's error.
func batchExitCode(ctx context.Context, b generator.BatchResult, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return exitCode(domain.ExitInterrupted)
		}
		return err
	}
	return exitCode(domain.ForBatch(b.Failed))
}
