package mapping

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	filepathx "github.com/yargevad/filepathx"
)

// ScanOptions controls mapping discovery.
type ScanOptions struct {
	// Patterns are workspace-relative globs; `**` matches any depth.
	Patterns []string
	// Exclude patterns remove matches, using the same glob syntax.
	Exclude []string
	// Existing mappings are skipped by source path.
	Existing []Mapping
}

// Scan expands opts.Patterns under root and proposes one mapping per
// matched file that is not excluded and not already mapped. Results are
// sorted by source path.
func Scan(root string, opts ScanOptions) ([]Mapping, error) {
	excluded, err := expand(root, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("expand exclude patterns: %w", err)
	}
	for _, m := range opts.Existing {
		excluded[filepath.ToSlash(m.Source)] = true
	}

	matched, err := expand(root, opts.Patterns)
	if err != nil {
		return nil, err
	}

	var out []Mapping
	for rel := range matched {
		if excluded[rel] {
			continue
		}
		out = append(out, ForSource(rel))
	}
	slices.SortFunc(out, func(a, b Mapping) int { return strings.Compare(a.Source, b.Source) })
	return out, nil
}

// ForSource derives a mapping for a workspace-relative source path: the
// document mirrors the source path under ContentDir.
func ForSource(source string) Mapping {
	rel := filepath.ToSlash(source)
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	return Mapping{
		Source: rel,
		Doc:    path.Join(ContentDir, stem+".md"),
		Title:  titleFor(stem),
	}
}

func titleFor(stem string) string {
	parts := strings.Split(stem, "/")
	for i, p := range parts {
		p = strings.NewReplacer("_", " ", "-", " ").Replace(p)
		if p != "" {
			p = strings.ToUpper(p[:1]) + p[1:]
		}
		parts[i] = p
	}
	return strings.Join(parts, " / ")
}

// expand returns the set of regular files, as slash-separated paths relative
// to root, matched by any of patterns.
func expand(root string, patterns []string) (map[string]bool, error) {
	set := make(map[string]bool)
	for _, pattern := range patterns {
		abs := pattern
		if !filepath.IsAbs(pattern) {
			abs = filepath.Join(root, pattern)
		}
		matches, err := filepathx.Glob(abs)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			st, err := os.Stat(m)
			if err != nil || st.IsDir() {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			set[filepath.ToSlash(rel)] = true
		}
	}
	return set, nil
}

// Excluding returns the mappings of ms whose source does not match any of
// the exclude patterns.
func Excluding(root string, ms []Mapping, exclude []string) ([]Mapping, error) {
	if len(exclude) == 0 {
		return slices.Clone(ms), nil
	}
	excluded, err := expand(root, exclude)
	if err != nil {
		return nil, fmt.Errorf("expand exclude patterns: %w", err)
	}
	return slices.DeleteFunc(slices.Clone(ms), func(m Mapping) bool {
		return excluded[path.Clean(filepath.ToSlash(m.Source))]
	}), nil
}
