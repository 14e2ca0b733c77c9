package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/mapping"
)

// DefaultDocsRoot is the workspace-relative directory holding the wiki.
const DefaultDocsRoot = "repowiki"

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Timeout:           agent.DefaultTimeout,
	DocsRoot:          DefaultDocsRoot,
	AutoUpdateEnabled: true,
	AutoUpdateDelay:   time.Second,
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	PreferredAgent agent.Type
	Timeout        time.Duration
	Custom         agent.CustomConfig
	// Mappings is empty when configuration has none; see Store.Mappings.
	Mappings          []mapping.Mapping
	ExcludePatterns   []string
	DocsRoot          string
	DocsTemplate      string
	AutoUpdateEnabled bool
	AutoUpdateDelay   time.Duration
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	AgentSet    bool
	TimeoutSet  bool
	DocsRootSet bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	PreferredAgent     string
	PreferredAgentSet  bool
	Timeout            time.Duration
	TimeoutSet         bool
	DocsRoot           string
	DocsRootSet        bool
	CustomCommand      string
	CustomCommandSet   bool
	CustomTemplate     string
	CustomTemplateSet  bool
	AutoUpdateDelay    time.Duration
	AutoUpdateDelaySet bool
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadEnvState reads environment variables and returns their state.
func LoadEnvState() EnvState {
	var state EnvState

	if v := os.Getenv("REPOWIKI_PREFERRED_AGENT"); v != "" {
		state.PreferredAgent = v
		state.PreferredAgentSet = true
	}
	if d, ok := parseEnvDuration("REPOWIKI_TIMEOUT"); ok {
		state.Timeout = d
		state.TimeoutSet = true
	}
	if v := os.Getenv("REPOWIKI_DOCS_ROOT"); v != "" {
		state.DocsRoot = v
		state.DocsRootSet = true
	}
	if v := os.Getenv("REPOWIKI_CUSTOM_COMMAND"); v != "" {
		state.CustomCommand = v
		state.CustomCommandSet = true
	}
	if v := os.Getenv("REPOWIKI_CUSTOM_TEMPLATE"); v != "" {
		state.CustomTemplate = v
		state.CustomTemplateSet = true
	}
	if d, ok := parseEnvDuration("REPOWIKI_AUTO_UPDATE_DELAY"); ok {
		state.AutoUpdateDelay = d
		state.AutoUpdateDelaySet = true
	}

	return state
}

// envDurationKeys are the duration-valued env vars.
var envDurationKeys = []string{"REPOWIKI_TIMEOUT", "REPOWIKI_AUTO_UPDATE_DELAY"}

// EnvWarnings reports duration env vars that are set but cannot be parsed.
// Such values are ignored by LoadEnvState.
func EnvWarnings() []string {
	var warnings []string
	for _, key := range envDurationKeys {
		if v := os.Getenv(key); v != "" {
			if _, ok := parseEnvDuration(key); !ok {
				warnings = append(warnings, fmt.Sprintf("%s=%q is not a valid duration (e.g. 90s, 5m, or seconds)", key, v))
			}
		}
	}
	return warnings
}

// parseEnvDuration accepts Go durations and plain seconds.
func parseEnvDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	// Apply config file values (if set)
	if cfg != nil {
		if cfg.PreferredAgent != nil {
			result.PreferredAgent = agent.Type(strings.ToLower(*cfg.PreferredAgent))
		}
		if cfg.Timeout != nil {
			result.Timeout = cfg.Timeout.AsDuration()
		}
		if cfg.CustomAgent.Command != nil {
			result.Custom.Command = *cfg.CustomAgent.Command
		}
		if cfg.CustomAgent.Template != nil {
			result.Custom.Template = *cfg.CustomAgent.Template
		}
		if cfg.CustomAgent.Priority != nil {
			result.Custom.Priority = *cfg.CustomAgent.Priority
		}
		result.Mappings = slices.Clone(cfg.DocMappings)
		result.ExcludePatterns = slices.Clone(cfg.ExcludePatterns)
		if cfg.Docs.Root != nil {
			result.DocsRoot = *cfg.Docs.Root
		}
		if cfg.Docs.Template != nil {
			result.DocsTemplate = *cfg.Docs.Template
		}
		if cfg.AutoUpdate.Enabled != nil {
			result.AutoUpdateEnabled = *cfg.AutoUpdate.Enabled
		}
		if cfg.AutoUpdate.Delay != nil {
			result.AutoUpdateDelay = cfg.AutoUpdate.Delay.AsDuration()
		}
	}

	// Apply env var values (if set)
	if envState.PreferredAgentSet {
		result.PreferredAgent = agent.Type(strings.ToLower(envState.PreferredAgent))
	}
	if envState.TimeoutSet {
		result.Timeout = envState.Timeout
	}
	if envState.DocsRootSet {
		result.DocsRoot = envState.DocsRoot
	}
	if envState.CustomCommandSet {
		result.Custom.Command = envState.CustomCommand
	}
	if envState.CustomTemplateSet {
		result.Custom.Template = envState.CustomTemplate
	}
	if envState.AutoUpdateDelaySet {
		result.AutoUpdateDelay = envState.AutoUpdateDelay
	}

	// Apply flag values (if explicitly set)
	if flagState.AgentSet {
		result.PreferredAgent = flagValues.PreferredAgent
	}
	if flagState.TimeoutSet {
		result.Timeout = flagValues.Timeout
	}
	if flagState.DocsRootSet {
		result.DocsRoot = flagValues.DocsRoot
	}

	return result
}

// Validate checks values that may have come from env vars or flags, which
// bypass file validation.
func (r ResolvedConfig) Validate() error {
	var errs []error
	if r.PreferredAgent != "" {
		if _, err := agent.ParseType(string(r.PreferredAgent)); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", r.Timeout))
	}
	if r.AutoUpdateDelay < 0 {
		errs = append(errs, fmt.Errorf("auto-update delay must be >= 0, got %s", r.AutoUpdateDelay))
	}
	if strings.TrimSpace(r.DocsRoot) == "" || filepath.IsAbs(r.DocsRoot) {
		errs = append(errs, fmt.Errorf("docs root must be a relative directory, got %q", r.DocsRoot))
	}
	return errors.Join(errs...)
}
