package agent

import "fmt"

// NewProvider creates a built-in provider by type. TypeCustom needs a
// CustomConfig and is built with NewCustomProvider.
func NewProvider(t Type, proc *Process) (Provider, error) {
	switch t {
	case TypeQoder:
		return NewQoderProvider(proc), nil
	case TypeClaude:
		return NewClaudeProvider(proc), nil
	case TypeCodex:
		return NewCodexProvider(proc), nil
	case TypeCursor:
		return NewCursorProvider(proc), nil
	case TypeAider:
		return NewAiderProvider(proc), nil
	case TypeCustom:
		return nil, fmt.Errorf("agent %q must be configured with a command and template", t)
	default:
		return nil, fmt.Errorf("unknown agent %q, supported: %s", t, joinTypes(SupportedTypes))
	}
}
