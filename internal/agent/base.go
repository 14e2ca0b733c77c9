package agent

import (
	"context"
	"path/filepath"
)

// artifactsFunc is a provider's Artifacts method, passed to the shared
// invoke protocol so the composed base can call back into the provider.
type artifactsFunc func(Request, PromptKind) (Artifacts, error)

// base carries the behaviour every provider shares: identity, probing and
// the exec/stdin invoke protocols.
type base struct {
	desc Descriptor
	proc *Process
}

func newBase(desc Descriptor, proc *Process) base {
	if proc == nil {
		proc = &Process{}
	}
	return base{desc: desc, proc: proc}
}

// Descriptor returns the provider identity.
func (b base) Descriptor() Descriptor {
	return b.desc
}

// Probe reports whether `<command> --version` succeeds.
func (b base) Probe(ctx context.Context) bool {
	_, ok := probeVersion(ctx, b.desc.Command)
	b.proc.logger().Debug("probe agent", "agent", b.desc.Type, "command", b.desc.Command, "available", ok)
	return ok
}

// Version returns the trimmed `--version` output, or "".
func (b base) Version(ctx context.Context) string {
	v, _ := probeVersion(ctx, b.desc.Command)
	return v
}

func (b base) invoke(ctx context.Context, req Request, build artifactsFunc) Result {
	if b.desc.Mode == ModeStdin {
		return b.invokeStdin(ctx, req, build)
	}

	art, err := build(req, PromptDefault)
	if err != nil {
		return Result{Error: err.Error(), ExitCode: -1}
	}
	req.log("Running "+b.desc.Name+" for "+req.Title, true)
	res := b.proc.RunShell(ctx, req.WorkspaceRoot, art.Shell)
	echoOutput(req, res)
	return res
}

func echoOutput(req Request, res Result) {
	if res.Stdout != "" {
		req.log(res.Stdout, false)
	}
	if res.Stderr != "" {
		req.log(res.Stderr, false)
	}
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
