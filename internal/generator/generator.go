// Package generator drives batches of mappings through the active agent:
// first-run initialization, staleness-driven updates and full regeneration.
package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/docstatus"
	"github.com/richhaase/repowiki/internal/mapping"
	"github.com/richhaase/repowiki/internal/terminal"
)

// Operation names a batch entry point.
type Operation string

const (
	OpInitialize Operation = "initialize"
	OpUpdate     Operation = "update"
	OpRegenerate Operation = "regenerate"
	OpWatch      Operation = "watch"
)

// ItemResult is the outcome of one mapping within a batch.
type ItemResult struct {
	Mapping  mapping.Mapping
	Status   docstatus.Status
	Agent    agent.Type
	Success  bool
	Error    string
	TimedOut bool
	Duration time.Duration
}

// BatchResult summarizes one batch.
type BatchResult struct {
	BatchID   string
	Operation Operation
	StartedAt time.Time
	Success   int
	Failed    int
	Skipped   int
	Duration  time.Duration
	// Errors holds one "<title>: <message>" entry per failed item, in
	// processing order.
	Errors []string
	Items  []ItemResult
}

// Progress receives a message and a percent increment after each item.
type Progress interface {
	Report(message string, increment float64)
}

type noProgress struct{}

func (noProgress) Report(string, float64) {}

// Recorder persists batch outcomes.
type Recorder interface {
	RecordItem(ctx context.Context, batchID string, item ItemResult) error
	RecordBatch(ctx context.Context, batch BatchResult) error
}

// ActiveAgent supplies the provider to use for each item.
type ActiveAgent interface {
	Active() agent.Provider
}

// MappingSource supplies the mappings for a batch.
type MappingSource interface {
	Mappings() []mapping.Mapping
}

// Options configures a Generator.
type Options struct {
	WorkspaceRoot string
	// DocsRoot is relative to WorkspaceRoot.
	DocsRoot string
	// Template overrides the style-guide template location.
	Template string
	Recorder Recorder
	Logger   *terminal.Logger
	Diag     *slog.Logger
}

// Generator runs generation batches for one workspace.
type Generator struct {
	root     string
	docsRoot string
	template string
	agents   ActiveAgent
	mappings MappingSource
	checker  *docstatus.Checker
	recorder Recorder
	logger   *terminal.Logger
	diag     *slog.Logger
}

// New creates a Generator.
func New(agents ActiveAgent, mappings MappingSource, opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = terminal.NewLoggerTo(io.Discard)
	}
	diag := opts.Diag
	if diag == nil {
		diag = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		root:     opts.WorkspaceRoot,
		docsRoot: opts.DocsRoot,
		template: opts.Template,
		agents:   agents,
		mappings: mappings,
		checker:  docstatus.NewChecker(opts.WorkspaceRoot, opts.DocsRoot),
		recorder: opts.Recorder,
		logger:   logger,
		diag:     diag,
	}
}

// Checker returns the staleness checker for this workspace.
func (g *Generator) Checker() *docstatus.Checker {
	return g.checker
}

// Initialize creates the docs layout if needed and generates every mapping.
func (g *Generator) Initialize(ctx context.Context, progress Progress) (BatchResult, error) {
	return g.initialize(ctx, OpInitialize, progress)
}

// Update generates only mappings whose documents are missing or outdated.
func (g *Generator) Update(ctx context.Context, progress Progress) (BatchResult, error) {
	return g.update(ctx, OpUpdate, g.mappings.Mappings(), progress)
}

// UpdateMappings is Update restricted to ms.
func (g *Generator) UpdateMappings(ctx context.Context, ms []mapping.Mapping, progress Progress) (BatchResult, error) {
	return g.update(ctx, OpWatch, ms, progress)
}

// Regenerate deletes all generated content and runs Initialize.
func (g *Generator) Regenerate(ctx context.Context, progress Progress) (BatchResult, error) {
	content := g.ContentDir()
	if err := os.RemoveAll(content); err != nil {
		g.logger.Logf(terminal.StyleWarning, "Failed to clear %s: %v", content, err)
	} else {
		g.logger.Logf(terminal.StyleDim, "Cleared %s", content)
	}
	return g.initialize(ctx, OpRegenerate, progress)
}

func (g *Generator) initialize(ctx context.Context, op Operation, progress Progress) (BatchResult, error) {
	progress = orNoop(progress)
	batch := newBatch(op)

	if _, err := g.EnsureLayout(progress); err != nil {
		return batch, err
	}

	ms := g.mappings.Mappings()
	g.logger.Logf(terminal.StyleInfo, "Loaded %d doc %s", len(ms), terminal.Plural(len(ms), "mapping"))

	records := make([]docstatus.Record, len(ms))
	for i, m := range ms {
		records[i] = docstatus.Record{Mapping: m, Status: docstatus.Missing}
	}

	err := g.run(ctx, &batch, records, progress)
	return g.finish(ctx, batch), err
}

func (g *Generator) update(ctx context.Context, op Operation, ms []mapping.Mapping, progress Progress) (BatchResult, error) {
	progress = orNoop(progress)
	batch := newBatch(op)

	progress.Report("Checking document status...", 0)
	records, err := g.checker.CheckAll(ctx, ms)
	if err != nil {
		return batch, err
	}

	summary := docstatus.Summarize(records)
	g.logger.Logf(terminal.StyleInfo, "Document status: %d missing, %d outdated, %d up to date",
		summary.Missing, summary.Outdated, summary.UpToDate)

	work := docstatus.NeedsWork(records)
	if len(work) == 0 {
		g.logger.Log("All documents are up to date.", terminal.StyleSuccess)
		batch.Skipped = len(records)
		return g.finish(ctx, batch), nil
	}

	err = g.run(ctx, &batch, work, progress)
	batch.Skipped = summary.UpToDate
	return g.finish(ctx, batch), err
}

// run generates records in order. It stops early only when ctx is done.
func (g *Generator) run(ctx context.Context, batch *BatchResult, records []docstatus.Record, progress Progress) error {
	total := len(records)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := g.generate(ctx, rec)
		batch.Items = append(batch.Items, item)
		if item.Success {
			batch.Success++
			g.logger.Logf(terminal.StyleSuccess, "Done: %s", rec.Mapping.Title)
		} else {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %s", rec.Mapping.Title, item.Error))
			g.logger.Logf(terminal.StyleError, "Failed: %s - %s", rec.Mapping.Title, item.Error)
		}

		progress.Report(fmt.Sprintf("%s %s (%d/%d)", actionFor(rec.Status), rec.Mapping.Title, i+1, total), 100/float64(total))
		g.recordItem(ctx, batch.BatchID, item)
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, rec docstatus.Record) ItemResult {
	m := rec.Mapping
	item := ItemResult{Mapping: m, Status: rec.Status}

	p := g.agents.Active()
	if p == nil {
		item.Error = agent.ErrNoActiveAgent.Error()
		return item
	}
	desc := p.Descriptor()
	item.Agent = desc.Type

	docRel := filepath.Join(g.docsRoot, m.Doc)
	if err := os.MkdirAll(filepath.Dir(filepath.Join(g.root, docRel)), 0o755); err != nil {
		item.Error = fmt.Sprintf("failed to create directory for %s: %v", docRel, err)
		return item
	}

	g.logger.Verbosef("%s -> %s (%s)", m.Source, docRel, rec.Status)

	res := p.Invoke(ctx, agent.Request{
		DocPath:       docRel,
		Title:         m.Title,
		SourceFiles:   []string{m.Source},
		WorkspaceRoot: g.root,
		IsUpdate:      rec.Status == docstatus.Outdated,
		Log:           g.logger.Sink(),
	})
	item.Duration = res.Duration
	item.TimedOut = res.TimedOut

	g.diag.Debug("item finished", "title", m.Title, "agent", desc.Type, "success", res.Success,
		"timed_out", res.TimedOut, "exit_code", res.ExitCode, "duration", res.Duration)

	if !res.Success {
		item.Error = res.Error
		if item.Error == "" {
			item.Error = fmt.Sprintf("%s failed", desc.Name)
		}
		if agent.IsAuthFailure(res) {
			if hint := agent.AuthHint(desc.Type); hint != "" {
				item.Error += " (" + hint + ")"
			}
		}
		return item
	}

	item.Success = true
	return item
}

func (g *Generator) recordItem(ctx context.Context, batchID string, item ItemResult) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordItem(context.WithoutCancel(ctx), batchID, item); err != nil {
		g.logger.Logf(terminal.StyleWarning, "Failed to record history: %v", err)
	}
}

func (g *Generator) finish(ctx context.Context, batch BatchResult) BatchResult {
	batch.Duration = time.Since(batch.StartedAt)
	if g.recorder != nil {
		if err := g.recorder.RecordBatch(context.WithoutCancel(ctx), batch); err != nil {
			g.logger.Logf(terminal.StyleWarning, "Failed to record history: %v", err)
		}
	}
	return batch
}

func newBatch(op Operation) BatchResult {
	return BatchResult{
		BatchID:   uuid.NewString(),
		Operation: op,
		StartedAt: time.Now(),
	}
}

func orNoop(p Progress) Progress {
	if p == nil {
		return noProgress{}
	}
	return p
}

func actionFor(s docstatus.Status) string {
	if s == docstatus.Outdated {
		return "Updating"
	}
	return "Generating"
}
