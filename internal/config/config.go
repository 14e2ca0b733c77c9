// Package config provides configuration file support for repowiki.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/mapping"
)

// ConfigFileName is the name of the YAML config file.
const ConfigFileName = ".repowiki.yaml"

// TOMLFileName is the name of the TOML config file, used when no YAML file exists.
const TOMLFileName = ".repowiki.toml"

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Duration is a custom type that handles duration parsing.
// Supports both Go duration format ("5m", "300s") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalTOML implements the toml.Unmarshaler interface.
func (d *Duration) UnmarshalTOML(raw any) error {
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// MarshalText renders the duration in Go format for both encoders.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the repowiki configuration file.
type Config struct {
	PreferredAgent  *string           `yaml:"preferred_agent,omitempty" toml:"preferred_agent,omitempty"`
	Timeout         *Duration         `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	CustomAgent     CustomAgentConfig `yaml:"custom_agent,omitempty" toml:"custom_agent,omitempty"`
	DocMappings     []mapping.Mapping `yaml:"doc_mappings,omitempty" toml:"doc_mappings,omitempty"`
	ExcludePatterns []string          `yaml:"exclude_patterns,omitempty" toml:"exclude_patterns,omitempty"`
	Docs            DocsConfig        `yaml:"docs,omitempty" toml:"docs,omitempty"`
	AutoUpdate      AutoUpdateConfig  `yaml:"auto_update,omitempty" toml:"auto_update,omitempty"`
}

// CustomAgentConfig configures the user-defined agent.
type CustomAgentConfig struct {
	Command  *string `yaml:"command,omitempty" toml:"command,omitempty"`
	Template *string `yaml:"template,omitempty" toml:"template,omitempty"`
	Priority *int    `yaml:"priority,omitempty" toml:"priority,omitempty"`
}

// DocsConfig locates the generated documentation tree.
type DocsConfig struct {
	Root     *string `yaml:"root,omitempty" toml:"root,omitempty"`
	Template *string `yaml:"template,omitempty" toml:"template,omitempty"`
}

// AutoUpdateConfig controls `repowiki watch`.
type AutoUpdateConfig struct {
	Enabled *bool     `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Delay   *Duration `yaml:"delay,omitempty" toml:"delay,omitempty"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Warnings []string
	// Path is the file that was read, or "" if none exists.
	Path   string
	Format Format
}

// LoadFromDirWithWarnings reads .repowiki.yaml, or .repowiki.toml if there is
// no YAML file, from dir. Returns an empty config (not error) if neither exists.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	yamlPath := filepath.Join(dir, ConfigFileName)
	tomlPath := filepath.Join(dir, TOMLFileName)

	yamlExists := fileExists(yamlPath)
	tomlExists := fileExists(tomlPath)

	switch {
	case yamlExists:
		res, err := LoadFromPathWithWarnings(yamlPath)
		if err != nil {
			return nil, err
		}
		if tomlExists {
			res.Warnings = append(res.Warnings, fmt.Sprintf("both %s and %s exist; using %s", ConfigFileName, TOMLFileName, ConfigFileName))
		}
		return res, nil
	case tomlExists:
		return LoadFromPathWithWarnings(tomlPath)
	default:
		return &LoadResult{Config: &Config{}, Format: FormatYAML}, nil
	}
}

// FormatForPath returns the encoding implied by the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
// Returns an error if the file exists but cannot be parsed or fails validation.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	format := FormatForPath(path)
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}, Format: format}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, raw, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}

	warnings := checkUnknownKeys(raw, name)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &LoadResult{Config: cfg, Warnings: warnings, Path: path, Format: format}, nil
}

func decode(data []byte, format Format) (*Config, map[string]any, error) {
	var cfg Config
	var raw map[string]any

	if format == FormatTOML {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, nil, err
		}
		// If we can't parse generically, the main decode already reported it.
		_, _ = toml.Decode(string(data), &raw)
		return &cfg, raw, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}
	_ = yaml.Unmarshal(data, &raw)
	return &cfg, raw, nil
}

// Encode renders cfg in the given format.
func Encode(cfg *Config, format Format) ([]byte, error) {
	if format == FormatTOML {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	}
	return yaml.Marshal(cfg)
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{"preferred_agent", "timeout", "custom_agent", "doc_mappings", "exclude_patterns", "docs", "auto_update"}

// knownSectionKeys are the valid keys under each nested section.
var knownSectionKeys = map[string][]string{
	"custom_agent": {"command", "template", "priority"},
	"docs":         {"root", "template"},
	"auto_update":  {"enabled", "delay"},
}

// knownMappingKeys are the valid keys of each doc_mappings entry.
var knownMappingKeys = []string{"source", "doc", "title"}

// checkUnknownKeys checks for unknown keys in the decoded document and returns warnings.
func checkUnknownKeys(raw map[string]any, fileName string) []string {
	var warnings []string

	for _, key := range sortedKeys(raw) {
		if !slices.Contains(knownTopLevelKeys, key) {
			warnings = append(warnings, unknownKeyWarning(key, "", fileName, knownTopLevelKeys))
		}
	}

	for _, section := range sortedKeys(knownSectionKeys) {
		sub, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range sortedKeys(sub) {
			if !slices.Contains(knownSectionKeys[section], key) {
				warnings = append(warnings, unknownKeyWarning(key, section+" section", fileName, knownSectionKeys[section]))
			}
		}
	}

	for i, entry := range mappingEntries(raw["doc_mappings"]) {
		for _, key := range sortedKeys(entry) {
			if !slices.Contains(knownMappingKeys, key) {
				warnings = append(warnings, unknownKeyWarning(key, fmt.Sprintf("doc_mappings[%d]", i), fileName, knownMappingKeys))
			}
		}
	}

	return warnings
}

// mappingEntries normalizes the YAML ([]any) and TOML ([]map[string]any)
// shapes of the doc_mappings array.
func mappingEntries(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func unknownKeyWarning(key, where, fileName string, candidates []string) string {
	warning := fmt.Sprintf("unknown key %q in %s", key, fileName)
	if where != "" {
		warning = fmt.Sprintf("unknown key %q in %s of %s", key, where, fileName)
	}
	if suggestion := findSimilar(key, candidates); suggestion != "" {
		warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return warning
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// findSimilar finds the most similar string from candidates using Levenshtein distance.
// Returns empty string if no candidate is similar enough (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Timeout != nil && *c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", time.Duration(*c.Timeout)))
	}
	if c.PreferredAgent != nil && *c.PreferredAgent != "" {
		if _, err := agent.ParseType(*c.PreferredAgent); err != nil {
			errs = append(errs, fmt.Errorf("preferred_agent: %w", err))
		}
	}
	if p := c.CustomAgent.Priority; p != nil && *p < 1 {
		errs = append(errs, fmt.Errorf("custom_agent.priority must be >= 1, got %d", *p))
	}
	if d := c.AutoUpdate.Delay; d != nil && *d < 0 {
		errs = append(errs, fmt.Errorf("auto_update.delay must be >= 0, got %s", time.Duration(*d)))
	}
	if r := c.Docs.Root; r != nil && (strings.TrimSpace(*r) == "" || filepath.IsAbs(*r)) {
		errs = append(errs, fmt.Errorf("docs.root must be a relative directory, got %q", *r))
	}
	for _, pattern := range c.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
		}
	}
	if err := mapping.Validate(c.DocMappings); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
