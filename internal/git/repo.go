// Package git locates the workspace repository and reads its working tree state.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Repo is an opened repository.
type Repo struct {
	repo   *gogit.Repository
	root   string
	gitDir string
}

// Open opens the repository containing dir, searching parent directories.
func Open(dir string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no worktree: %w", err)
	}
	r := &Repo{repo: repo, root: wt.Filesystem.Root()}
	if st, ok := repo.Storer.(*filesystem.Storage); ok {
		r.gitDir = st.Filesystem().Root()
	}
	return r, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// GetRoot returns the repository root containing dir, or dir itself (made
// absolute) when it is not inside a repository.
func GetRoot(dir string) (string, error) {
	r, err := Open(dir)
	if err == nil {
		return r.Root(), nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return "", err
	}
	return filepath.Abs(dir)
}

// Modified returns the slash-separated, root-relative paths with uncommitted
// changes, untracked files included.
func (r *Repo) Modified() (map[string]bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	out := make(map[string]bool, len(status))
	for path, fs := range status {
		if fs.Worktree != gogit.Unmodified || fs.Staging != gogit.Unmodified {
			out[path] = true
		}
	}
	return out, nil
}

// EnsureExcluded adds pattern to .git/info/exclude if not already present.
func (r *Repo) EnsureExcluded(pattern string) error {
	if r.gitDir == "" {
		return errors.New("repository has no git directory")
	}
	infoDir := filepath.Join(r.gitDir, "info")
	excludePath := filepath.Join(infoDir, "exclude")

	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		return fmt.Errorf("failed to create info directory: %w", err)
	}

	content, err := os.ReadFile(excludePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read exclude file: %w", err)
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}

	f, err := os.OpenFile(excludePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open exclude file: %w", err)
	}
	defer f.Close()

	prefix := ""
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		prefix = "\n"
	}
	if _, err := f.WriteString(prefix + pattern + "\n"); err != nil {
		return fmt.Errorf("failed to write to exclude file: %w", err)
	}
	return nil
}
