package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/fsutil"
	"github.com/richhaase/repowiki/internal/mapping"
)

// ErrReadOnly is returned by Store updates when config files are disabled.
var ErrReadOnly = errors.New("config file disabled (--no-config); cannot persist changes")

// OpenOptions controls how a Store is loaded.
type OpenOptions struct {
	// NoConfig skips reading and writing config files.
	NoConfig   bool
	Env        EnvState
	Flags      FlagState
	FlagValues ResolvedConfig
}

// Store is the workspace configuration: resolved values for reading and the
// backing file for persisting updates. It implements agent.Preferences.
type Store struct {
	mu       sync.Mutex
	path     string
	format   Format
	readOnly bool
	file     *Config
	resolved ResolvedConfig
	warnings []string
}

var _ agent.Preferences = (*Store)(nil)

// Open loads the config file from dir (unless disabled) and resolves it with
// env vars and flags.
func Open(dir string, opts OpenOptions) (*Store, error) {
	load := &LoadResult{Config: &Config{}, Format: FormatYAML}
	if !opts.NoConfig {
		var err error
		load, err = LoadFromDirWithWarnings(dir)
		if err != nil {
			return nil, err
		}
	}

	resolved := Resolve(load.Config, opts.Env, opts.Flags, opts.FlagValues)
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	path := load.Path
	if path == "" {
		path = filepath.Join(dir, ConfigFileName)
	}
	return &Store{
		path:     path,
		format:   load.Format,
		readOnly: opts.NoConfig,
		file:     load.Config,
		resolved: resolved,
		warnings: load.Warnings,
	}, nil
}

// Path returns the config file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Warnings returns non-fatal issues found while loading.
func (s *Store) Warnings() []string {
	return slices.Clone(s.warnings)
}

// Resolved returns a copy of the resolved configuration.
func (s *Store) Resolved() ResolvedConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.resolved
	r.Mappings = slices.Clone(r.Mappings)
	r.ExcludePatterns = slices.Clone(r.ExcludePatterns)
	return r
}

// PreferredAgent implements agent.Preferences.
func (s *Store) PreferredAgent() agent.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved.PreferredAgent
}

// CustomAgent implements agent.Preferences.
func (s *Store) CustomAgent() agent.CustomConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved.Custom
}

// Mappings returns the configured mappings, or the default set when none
// are configured.
func (s *Store) Mappings() []mapping.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resolved.Mappings) == 0 {
		return mapping.Defaults()
	}
	return slices.Clone(s.resolved.Mappings)
}

// HasConfiguredMappings reports whether Mappings comes from configuration.
func (s *Store) HasConfiguredMappings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resolved.Mappings) > 0
}

// SetPreferredAgent records t as the preferred agent and persists it.
func (s *Store) SetPreferredAgent(t agent.Type) error {
	if _, err := agent.ParseType(string(t)); err != nil {
		return err
	}
	return s.update(func(cfg *Config, r *ResolvedConfig) {
		v := string(t)
		cfg.PreferredAgent = &v
		r.PreferredAgent = t
	})
}

// SetMappings replaces the configured mappings and persists them.
func (s *Store) SetMappings(ms []mapping.Mapping) error {
	if err := mapping.Validate(ms); err != nil {
		return err
	}
	return s.update(func(cfg *Config, r *ResolvedConfig) {
		cfg.DocMappings = slices.Clone(ms)
		r.Mappings = slices.Clone(ms)
	})
}

func (s *Store) update(apply func(*Config, *ResolvedConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}

	next := *s.file
	resolved := s.resolved
	apply(&next, &resolved)

	data, err := Encode(&next, s.format)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(s.path), err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	s.file = &next
	s.resolved = resolved
	return nil
}
