// Package docstatus decides which documents are stale by comparing the
// modification time of each document with that of its source file.
package docstatus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richhaase/repowiki/internal/mapping"
)

// Status is the derived generation state of one mapping.
type Status string

const (
	Missing  Status = "missing"
	UpToDate Status = "up_to_date"
	Outdated Status = "outdated"
)

// NeedsWork reports whether a document in this state should be generated.
func (s Status) NeedsWork() bool {
	return s == Missing || s == Outdated
}

// Record is a mapping with its computed status. A nil time means the file
// does not exist.
type Record struct {
	Mapping     mapping.Mapping
	Status      Status
	DocMtime    *time.Time
	SourceMtime *time.Time
}

// SourceMissing reports whether the source file no longer exists. Such
// records are UpToDate whenever the document exists.
func (r Record) SourceMissing() bool {
	return r.SourceMtime == nil
}

// Checker computes statuses for mappings in one workspace.
type Checker struct {
	workspaceRoot string
	docsRoot      string
	// MaxConcurrency bounds CheckAll; zero selects GOMAXPROCS*4.
	MaxConcurrency int
}

// NewChecker creates a Checker. docsRoot is relative to workspaceRoot.
func NewChecker(workspaceRoot, docsRoot string) *Checker {
	return &Checker{workspaceRoot: workspaceRoot, docsRoot: docsRoot}
}

// DocPath returns the absolute path of m's document.
func (c *Checker) DocPath(m mapping.Mapping) string {
	return filepath.Join(c.workspaceRoot, c.docsRoot, m.Doc)
}

// SourcePath returns the absolute path of m's source file.
func (c *Checker) SourcePath(m mapping.Mapping) string {
	return filepath.Join(c.workspaceRoot, m.Source)
}

// Check computes the status of a single mapping. A missing file is not an
// error; any other stat failure is.
func (c *Checker) Check(m mapping.Mapping) (Record, error) {
	docMtime, err := mtime(c.DocPath(m))
	if err != nil {
		return Record{}, err
	}
	sourceMtime, err := mtime(c.SourcePath(m))
	if err != nil {
		return Record{}, err
	}

	rec := Record{Mapping: m, DocMtime: docMtime, SourceMtime: sourceMtime}
	switch {
	case docMtime == nil:
		rec.Status = Missing
	case sourceMtime != nil && sourceMtime.After(*docMtime):
		rec.Status = Outdated
	default:
		rec.Status = UpToDate
	}
	return rec, nil
}

// CheckAll checks every mapping concurrently and returns records in input
// order. The first stat error cancels the rest and is returned.
func (c *Checker) CheckAll(ctx context.Context, ms []mapping.Mapping) ([]Record, error) {
	records := make([]Record, len(ms))

	g, ctx := errgroup.WithContext(ctx)
	limit := c.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0) * 4
	}
	g.SetLimit(limit)

	for i, m := range ms {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := c.Check(m)
			if err != nil {
				return fmt.Errorf("check %s: %w", m.Doc, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func mtime(path string) (*time.Time, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	t := info.ModTime()
	return &t, nil
}

// Summary counts records per status.
type Summary struct {
	Missing  int
	Outdated int
	UpToDate int
	// SourceMissing counts UpToDate records whose source no longer exists.
	SourceMissing int
}

// Total returns the number of records summarized.
func (s Summary) Total() int {
	return s.Missing + s.Outdated + s.UpToDate
}

// Summarize counts records per status.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case Missing:
			s.Missing++
		case Outdated:
			s.Outdated++
		case UpToDate:
			s.UpToDate++
			if r.SourceMissing() {
				s.SourceMissing++
			}
		}
	}
	return s
}

// NeedsWork returns the Missing and Outdated records, in order.
func NeedsWork(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Status.NeedsWork() {
			out = append(out, r)
		}
	}
	return out
}
