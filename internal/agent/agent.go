package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Type identifies a provider. The built-in set is fixed; TypeCustom is the
// single extension point configured at runtime.
type Type string

const (
	TypeQoder  Type = "qoder"
	TypeClaude Type = "claude"
	TypeCodex  Type = "codex"
	TypeCursor Type = "cursor"
	TypeAider  Type = "aider"
	TypeCustom Type = "custom"
)

// BuiltinTypes lists the built-in providers in declaration order.
// Detection and priority tie-breaking follow this order.
var BuiltinTypes = []Type{TypeQoder, TypeClaude, TypeCodex, TypeCursor, TypeAider}

// SupportedTypes lists every valid provider type, including custom.
var SupportedTypes = append(slices.Clone(BuiltinTypes), TypeCustom)

// ParseType converts a user-supplied name to a Type.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(SupportedTypes, t) {
		return t, nil
	}
	return "", fmt.Errorf("unknown agent %q, supported: %s", name, joinTypes(SupportedTypes))
}

func joinTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Mode is the invocation style of a provider.
type Mode int

const (
	// ModeExec runs a single shell command; the agent writes its own output file.
	ModeExec Mode = iota
	// ModeStdin streams the prompt over stdin and captures the document from stdout.
	ModeStdin
)

func (m Mode) String() string {
	if m == ModeStdin {
		return "stdin"
	}
	return "exec"
}

// Descriptor is the identity of a provider.
type Descriptor struct {
	Type     Type
	Name     string
	Command  string
	Priority int
	Mode     Mode

	// Template is only set for the custom provider.
	Template string
}

// LogFunc receives progress lines from an invocation. always marks lines
// that should be shown even when output is not verbose.
type LogFunc func(msg string, always bool)

// Request is a single generation request. It is passed by value and treated
// as immutable; use Clone before modifying slices.
type Request struct {
	// DocPath is the target document, relative to WorkspaceRoot or absolute.
	DocPath string
	Title   string
	// SourceFiles may be empty, in which case the agent infers relevant files.
	SourceFiles   []string
	WorkspaceRoot string
	IsUpdate      bool
	Log           LogFunc
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	cp := r
	cp.SourceFiles = slices.Clone(r.SourceFiles)
	return cp
}

// AbsDocPath resolves DocPath against WorkspaceRoot.
func (r Request) AbsDocPath() string {
	return resolvePath(r.WorkspaceRoot, r.DocPath)
}

func (r Request) log(msg string, always bool) {
	if r.Log != nil {
		r.Log(msg, always)
	}
}

// Result is the outcome of one invocation. Invocations never return Go
// errors; every failure path is described here.
type Result struct {
	Success  bool
	Stdout   string
	Stderr   string
	Error    string
	Duration time.Duration
	ExitCode int
	TimedOut bool

	// ShouldRetry is set by the stdin protocol when output failed validation.
	ShouldRetry bool
}

// Provider is one external agent integration.
type Provider interface {
	// Descriptor returns the provider identity.
	Descriptor() Descriptor

	// Probe reports whether the provider's CLI is installed and responds.
	Probe(ctx context.Context) bool

	// Version returns the CLI's version text, or "" if unavailable.
	Version(ctx context.Context) string

	// Artifacts builds the invocation for req using the given prompt kind:
	// a shell command for exec mode, or args plus prompt for stdin mode.
	Artifacts(req Request, kind PromptKind) (Artifacts, error)

	// Invoke runs the provider for req. It never returns an error; failures
	// are reported in the Result.
	Invoke(ctx context.Context, req Request) Result
}

// Artifacts is what a provider produces for one invocation.
type Artifacts struct {
	Mode Mode
	// Shell is the full command line in exec mode.
	Shell string
	// Args and Prompt are used in stdin mode.
	Args   []string
	Prompt string
}
