package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/richhaase/repowiki/internal/fsutil"
)

// invokeStdin runs the stdin protocol: invoke with the default prompt, retry
// once with the fallback prompt when output fails validation, then persist
// the accepted content to the request's document path.
func (b base) invokeStdin(ctx context.Context, req Request, build artifactsFunc) Result {
	var (
		res   Result
		total time.Duration
	)

	for attempt := 0; attempt <= maxContentRetries; attempt++ {
		kind := PromptDefault
		if attempt > 0 {
			kind = PromptFallback
			req.log(fmt.Sprintf("%s output rejected (%s), retrying with fallback prompt", b.desc.Name, res.Error), true)
			b.proc.logger().Debug("fallback retry", "agent", b.desc.Type, "doc", req.DocPath, "reason", res.Error)
		}

		art, err := build(req, kind)
		if err != nil {
			return Result{Error: err.Error(), ExitCode: -1, Duration: total}
		}

		req.log(fmt.Sprintf("Running %s for %s (%s prompt)", b.desc.Name, req.Title, kind), attempt == 0)
		res = b.proc.RunStdin(ctx, req.WorkspaceRoot, b.desc.Command, art.Args, art.Prompt)
		total += res.Duration
		if res.Stderr != "" {
			req.log(res.Stderr, false)
		}

		if !res.ShouldRetry {
			break
		}
	}

	res.Duration = total
	res.ShouldRetry = false
	if !res.Success {
		return res
	}

	if err := fsutil.WriteFileAtomic(req.AbsDocPath(), []byte(res.Stdout), 0o644); err != nil {
		res.Success = false
		res.Error = fmt.Sprintf("failed to write document %s: %v", req.DocPath, err)
		return res
	}
	req.log(fmt.Sprintf("Wrote %s", req.DocPath), false)
	return res
}
