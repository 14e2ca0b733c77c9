package generator

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/richhaase/repowiki/internal/fsutil"
	"github.com/richhaase/repowiki/internal/mapping"
	"github.com/richhaase/repowiki/internal/terminal"
)

const (
	// MetaDir holds bookkeeping files such as the history database.
	MetaDir = "zh/meta"
	// SkillFile is the style guide copied into the docs root.
	SkillFile = "skill.md"
	// TemplateDir is looked up next to the executable.
	TemplateDir = "REPO_WIKI"
)

//go:embed templates/skill.md
var builtinSkill []byte

// DocsDir returns the absolute docs root.
func (g *Generator) DocsDir() string {
	return filepath.Join(g.root, g.docsRoot)
}

// ContentDir returns the absolute directory generated pages live under.
func (g *Generator) ContentDir() string {
	return filepath.Join(g.DocsDir(), filepath.FromSlash(mapping.ContentDir))
}

// MetaPath returns the absolute meta directory.
func (g *Generator) MetaPath() string {
	return filepath.Join(g.DocsDir(), filepath.FromSlash(MetaDir))
}

// EnsureMeta creates only the meta directory. Update and watch use it so the
// history database has a home without initializing the wiki.
func (g *Generator) EnsureMeta() error {
	if err := os.MkdirAll(g.MetaPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", g.MetaPath(), err)
	}
	return nil
}

// EnsureLayout creates the content and meta directories, and copies the
// style guide unless the wiki is already initialized. A docs root holding
// only the meta directory is not initialized. It reports whether the wiki
// was initialized by this call.
func (g *Generator) EnsureLayout(progress Progress) (bool, error) {
	root := g.DocsDir()
	done, err := g.initialized()
	if err != nil {
		return false, err
	}
	if !done {
		orNoop(progress).Report("Initializing directory structure...", 0)
	}

	for _, dir := range []string{g.ContentDir(), g.MetaPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if done {
		return false, nil
	}

	skill, err := g.readTemplate()
	if err != nil {
		g.logger.Logf(terminal.StyleWarning, "Could not read skill template: %v; using the built-in template", err)
		skill = builtinSkill
	}
	target := filepath.Join(root, SkillFile)
	if err := fsutil.WriteFileAtomic(target, skill, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}

	g.logger.Logf(terminal.StyleSuccess, "Initialized %s", root)
	return true, nil
}

// initialized reports whether the content directory or the style guide exists.
func (g *Generator) initialized() (bool, error) {
	for _, p := range []string{g.ContentDir(), filepath.Join(g.DocsDir(), SkillFile)} {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return false, nil
}

// readTemplate reads the configured template, or the one installed next to
// the executable. A missing install-location template falls back silently.
func (g *Generator) readTemplate() ([]byte, error) {
	if g.template != "" {
		path := g.template
		if !filepath.IsAbs(path) {
			path = filepath.Join(g.root, path)
		}
		return os.ReadFile(path)
	}

	exe, err := os.Executable()
	if err != nil {
		return builtinSkill, nil
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), TemplateDir, SkillFile))
	if errors.Is(err, fs.ErrNotExist) {
		g.logger.Verbosef("No %s next to the executable; using the built-in template", filepath.Join(TemplateDir, SkillFile))
		return builtinSkill, nil
	}
	return data, err
}
