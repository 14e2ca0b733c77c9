package agent

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNoActiveAgent is returned when generation is requested with no
// provider selected.
var ErrNoActiveAgent = errors.New("no agent available; run `repowiki agents detect` first")

// Preferences supplies the user's agent settings to the registry.
type Preferences interface {
	// PreferredAgent returns the configured provider type, or "" for none.
	PreferredAgent() Type
	// CustomAgent returns the custom provider settings.
	CustomAgent() CustomConfig
}

// Status is one row of a detection pass.
type Status struct {
	Type      Type
	Name      string
	Command   string
	Mode      Mode
	Priority  int
	Available bool
	Version   string
}

// Registry owns the known providers, their availability and the active
// selection. It is safe for concurrent use.
type Registry struct {
	prefs Preferences
	proc  *Process

	mu        sync.Mutex
	builtins  []Provider
	available []Provider
	active    Provider
	detected  bool
}

// NewRegistry creates a registry with every built-in provider. prefs may be nil.
func NewRegistry(prefs Preferences, proc *Process) *Registry {
	builtins := make([]Provider, 0, len(BuiltinTypes))
	for _, t := range BuiltinTypes {
		p, err := NewProvider(t, proc)
		if err != nil {
			continue
		}
		builtins = append(builtins, p)
	}
	return &Registry{prefs: prefs, proc: proc, builtins: builtins}
}

// Known returns the built-in providers followed by the custom provider when
// one is configured.
func (r *Registry) Known() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.knownLocked()
}

func (r *Registry) knownLocked() []Provider {
	known := slices.Clone(r.builtins)
	if r.prefs == nil {
		return known
	}
	if custom, err := NewCustomProvider(r.prefs.CustomAgent(), r.proc); err == nil {
		known = append(known, custom)
	}
	return known
}

// DetectAvailable probes every known provider in order and replaces the
// available set with the ones that respond.
func (r *Registry) DetectAvailable(ctx context.Context) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detectLocked(ctx)
}

func (r *Registry) detectLocked(ctx context.Context) []Status {
	r.available = r.available[:0]
	known := r.knownLocked()
	statuses := make([]Status, 0, len(known))

	for _, p := range known {
		d := p.Descriptor()
		st := Status{
			Type:     d.Type,
			Name:     d.Name,
			Command:  d.Command,
			Mode:     d.Mode,
			Priority: d.Priority,
		}
		if p.Probe(ctx) {
			st.Available = true
			st.Version = p.Version(ctx)
			r.available = append(r.available, p)
		}
		statuses = append(statuses, st)
	}

	r.detected = true
	if r.active != nil && !r.isAvailableLocked(r.active.Descriptor().Type) {
		r.active = nil
	}
	return statuses
}

// SelectBest picks the active provider: the preferred one if it is
// available, otherwise the available provider with the lowest priority.
// Detection runs first if it never has. Returns nil when nothing is available.
func (r *Registry) SelectBest(ctx context.Context) Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.detected {
		r.detectLocked(ctx)
	}

	if r.prefs != nil {
		if pref := r.prefs.PreferredAgent(); pref != "" {
			if p := r.findAvailableLocked(pref); p != nil {
				r.active = p
				return p
			}
		}
	}

	if len(r.available) == 0 {
		r.active = nil
		return nil
	}

	ranked := slices.Clone(r.available)
	slices.SortStableFunc(ranked, func(a, b Provider) int {
		return a.Descriptor().Priority - b.Descriptor().Priority
	})
	r.active = ranked[0]
	return r.active
}

// SetActive makes t the active provider. It fails, leaving the selection
// unchanged, when t is not currently available.
func (r *Registry) SetActive(t Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findAvailableLocked(t)
	if p == nil {
		return false
	}
	r.active = p
	return true
}

// Active returns the selected provider, or nil.
func (r *Registry) Active() Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Available returns the providers found by the last detection.
func (r *Registry) Available() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.available)
}

// Detected reports whether DetectAvailable has run.
func (r *Registry) Detected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detected
}

func (r *Registry) findAvailableLocked(t Type) Provider {
	for _, p := range r.available {
		if p.Descriptor().Type == t {
			return p
		}
	}
	return nil
}

func (r *Registry) isAvailableLocked(t Type) bool {
	return r.findAvailableLocked(t) != nil
}
