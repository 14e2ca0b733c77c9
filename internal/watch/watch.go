// Package watch triggers document updates when mapped source files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/richhaase/repowiki/internal/mapping"
	"github.com/richhaase/repowiki/internal/terminal"
)

// DefaultDelay is the debounce interval when none is configured.
const DefaultDelay = time.Second

// Handler receives the mappings whose sources changed, in mapping order.
// Calls are serialized.
type Handler func(ctx context.Context, changed []mapping.Mapping)

// Options configures a Watcher.
type Options struct {
	// Delay is how long the watcher waits after the last change before
	// calling the handler.
	Delay  time.Duration
	Logger *terminal.Logger
}

// Watcher watches the sources of a mapping set.
type Watcher struct {
	root     string
	mappings []mapping.Mapping
	bySource map[string]int
	delay    time.Duration
	handle   Handler
	logger   *terminal.Logger

	mu      sync.Mutex
	pending map[int]bool
}

// New creates a watcher for ms, whose sources are relative to root.
func New(root string, ms []mapping.Mapping, handle Handler, opts Options) *Watcher {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = terminal.NewLoggerTo(io.Discard)
	}

	bySource := make(map[string]int, len(ms))
	for i, m := range ms {
		bySource[filepath.Join(root, m.Source)] = i
	}
	return &Watcher{
		root:     root,
		mappings: slices.Clone(ms),
		bySource: bySource,
		delay:    delay,
		handle:   handle,
		logger:   logger,
		pending:  make(map[int]bool),
	}
}

// Dirs returns the directories that must be watched, sorted.
func (w *Watcher) Dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for path := range w.bySource {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// Run watches until ctx is done. Directories that do not exist are skipped
// with a warning.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.Dirs() {
		if err := fw.Add(dir); err != nil {
			w.logger.Logf(terminal.StyleWarning, "Cannot watch %s: %v", dir, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no source directories to watch")
	}
	w.logger.Logf(terminal.StyleInfo, "Watching %d %s in %d %s",
		len(w.mappings), terminal.Plural(len(w.mappings), "source"), watched, terminal.Plural(watched, "directory"))

	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.Observe(ev) {
				timer.Reset(w.delay)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Logf(terminal.StyleWarning, "Watch error: %v", err)

		case <-timer.C:
			if changed := w.Flush(); len(changed) > 0 {
				w.handle(ctx, changed)
			}
		}
	}
}

// Observe records ev if it touches a mapped source and reports whether it did.
func (w *Watcher) Observe(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	i, ok := w.bySource[filepath.Clean(ev.Name)]
	if !ok {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[i] = true
	return true
}

// Flush returns the pending mappings in mapping order and clears them.
func (w *Watcher) Flush() []mapping.Mapping {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := make([]int, 0, len(w.pending))
	for i := range w.pending {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	clear(w.pending)

	out := make([]mapping.Mapping, len(idx))
	for j, i := range idx {
		out[j] = w.mappings[i]
	}
	return out
}
