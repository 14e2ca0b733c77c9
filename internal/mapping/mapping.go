// Package mapping defines source-to-document mappings, the default set used
// when none are configured, and glob-based discovery of new mappings.
package mapping

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Mapping pairs one source file with the document that describes it.
// Source is relative to the workspace root; Doc is relative to the docs root.
type Mapping struct {
	Source string `yaml:"source" toml:"source"`
	Doc    string `yaml:"doc" toml:"doc"`
	Title  string `yaml:"title" toml:"title"`
}

// ContentDir is the docs-root-relative directory generated pages live under.
const ContentDir = "zh/content"

// Defaults returns the mapping set used when configuration has none.
func Defaults() []Mapping {
	return []Mapping{
		{Source: "README.md", Doc: ContentDir + "/overview.md", Title: "System Overview"},
		{Source: "go.mod", Doc: ContentDir + "/configuration/go-module.md", Title: "Go Module Configuration"},
		{Source: "package.json", Doc: ContentDir + "/configuration/package.md", Title: "Package Configuration"},
		{Source: "Makefile", Doc: ContentDir + "/configuration/build.md", Title: "Build Configuration"},
		{Source: "Dockerfile", Doc: ContentDir + "/configuration/container.md", Title: "Container Image"},
	}
}

// Validate checks that every mapping is complete, stays inside its root and
// that no two mappings target the same document.
func Validate(ms []Mapping) error {
	var errs []error
	seen := make(map[string]int, len(ms))
	for i, m := range ms {
		switch {
		case strings.TrimSpace(m.Source) == "":
			errs = append(errs, fmt.Errorf("doc_mappings[%d]: source is required", i))
		case strings.TrimSpace(m.Doc) == "":
			errs = append(errs, fmt.Errorf("doc_mappings[%d]: doc is required", i))
		case strings.TrimSpace(m.Title) == "":
			errs = append(errs, fmt.Errorf("doc_mappings[%d]: title is required", i))
		}
		for field, p := range map[string]string{"source": m.Source, "doc": m.Doc} {
			if p != "" && escapesRoot(p) {
				errs = append(errs, fmt.Errorf("doc_mappings[%d]: %s %q must be a relative path inside the workspace", i, field, p))
			}
		}
		if m.Doc == "" {
			continue
		}
		key := path.Clean(filepath.ToSlash(m.Doc))
		if j, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("doc_mappings[%d]: doc %q already used by doc_mappings[%d]", i, m.Doc, j))
			continue
		}
		seen[key] = i
	}
	return errors.Join(errs...)
}

func escapesRoot(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	clean := path.Clean(filepath.ToSlash(p))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// Sources returns the source paths of ms in order.
func Sources(ms []Mapping) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Source
	}
	return out
}
