package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds a single invocation.
	DefaultTimeout = 5 * time.Minute

	// MaxOutputBytes caps each of stdout and stderr.
	MaxOutputBytes = 10 << 20

	// ProbeTimeout bounds `<cmd> --version` during detection.
	ProbeTimeout = 5 * time.Second

	// TerminateGrace is how long a child gets between SIGTERM and SIGKILL.
	TerminateGrace = 5 * time.Second
)

// Process runs external agent commands. The zero value uses the package
// defaults and discards diagnostics.
type Process struct {
	Timeout     time.Duration
	OutputLimit int
	Grace       time.Duration
	Logger      *slog.Logger
}

// NewProcess creates a Process with the given per-invocation timeout.
// A zero timeout selects DefaultTimeout.
func NewProcess(timeout time.Duration, logger *slog.Logger) *Process {
	return &Process{Timeout: timeout, Logger: logger}
}

func (p *Process) timeout() time.Duration {
	if p == nil || p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p *Process) limit() int {
	if p == nil || p.OutputLimit <= 0 {
		return MaxOutputBytes
	}
	return p.OutputLimit
}

func (p *Process) grace() time.Duration {
	if p == nil || p.Grace <= 0 {
		return TerminateGrace
	}
	return p.Grace
}

// remaining is the part of the timeout left for an invocation begun at start.
// Spawning the child counts against the timeout.
func (p *Process) remaining(start time.Time) time.Duration {
	return max(p.timeout()-time.Since(start), 0)
}

func (p *Process) logger() *slog.Logger {
	if p == nil || p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// RunShell executes command through `sh -c` in dir. Success means the command
// exited zero within the timeout; captured output is not inspected.
func (p *Process) RunShell(ctx context.Context, dir, command string) Result {
	start := time.Now()
	log := p.logger()

	runCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	// #nosec G204 - command is built by a provider from configured templates.
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	killer := newGroupKiller(p.grace())
	cmd.Cancel = func() error {
		return killer.terminate(cmd.Process.Pid)
	}
	cmd.WaitDelay = p.grace()

	stdout := newCappedBuffer(p.limit())
	stderr := newCappedBuffer(p.limit())
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug("exec agent", "dir", dir, "command", truncate(command, 200))
	err := cmd.Run()
	// sh may be gone while the rest of its group still runs.
	killer.reaped()
	killer.wait()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		ExitCode: exitCodeOf(err),
	}

	switch {
	case ctx.Err() != nil:
		res.Error = "interrupted: " + ctx.Err().Error()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		res.Error = fmt.Sprintf("timed out after %s", p.timeout())
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Error = failureText(res.Stderr, res.ExitCode)
		} else {
			res.Error = fmt.Sprintf("failed to start sh: %v", err)
		}
	case stdout.Exceeded() || stderr.Exceeded():
		res.Error = fmt.Sprintf("output exceeded %s", formatBytes(p.limit()))
	default:
		res.Success = true
	}

	log.Debug("exec agent finished", "success", res.Success, "exit_code", res.ExitCode, "duration", res.Duration)
	return res
}

type runState int

const (
	stateRunning runState = iota
	stateTimedOut
	stateResolved
)

// resolution holds the single outcome of a stdin invocation. The first
// transition out of stateRunning wins; later attempts are no-ops.
type resolution struct {
	mu     sync.Mutex
	state  runState
	result Result
	done   chan struct{}
}

func newResolution() *resolution {
	return &resolution{done: make(chan struct{})}
}

func (r *resolution) transition(to runState, res Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRunning {
		return false
	}
	r.state = to
	r.result = res
	close(r.done)
	return true
}

func (r *resolution) wait() Result {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// RunStdin starts name with args in dir, writes prompt to its stdin and
// closes it, then waits for exit or timeout. On a clean exit with output,
// the content is validated; a rejection sets ShouldRetry.
func (p *Process) RunStdin(ctx context.Context, dir, name string, args []string, prompt string) Result {
	start := time.Now()
	log := p.logger()
	res := newResolution()

	// #nosec G204 - name is one of the known stdin-mode agent CLIs.
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = stdinEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = p.grace()

	stdout := newCappedBuffer(p.limit())
	stderr := newCappedBuffer(p.limit())
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to start %s: %v", name, err), ExitCode: -1, Duration: time.Since(start)}
	}

	log.Debug("spawn agent", "name", name, "args", args, "prompt_bytes", len(prompt))
	if err := cmd.Start(); err != nil {
		res.transition(stateResolved, Result{
			Error:    fmt.Sprintf("failed to start %s: %v", name, err),
			ExitCode: -1,
			Duration: time.Since(start),
		})
		return res.wait()
	}
	pid := cmd.Process.Pid

	killer := newGroupKiller(p.grace())
	terminate := func() { _ = killer.terminate(pid) }

	timer := time.AfterFunc(p.remaining(start), func() {
		if res.transition(stateTimedOut, Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Error:    fmt.Sprintf("timed out after %s", p.timeout()),
			TimedOut: true,
			ExitCode: -1,
			Duration: time.Since(start),
		}) {
			log.Debug("agent timed out", "name", name, "pid", pid)
			terminate()
		}
	})
	defer timer.Stop()

	go func() {
		select {
		case <-ctx.Done():
			if res.transition(stateResolved, Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Error:    "interrupted: " + ctx.Err().Error(),
				ExitCode: -1,
				Duration: time.Since(start),
			}) {
				terminate()
			}
		case <-res.done:
		}
	}()

	go func() {
		_, werr := io.WriteString(stdin, prompt)
		cerr := stdin.Close()
		if werr != nil || cerr != nil {
			log.Debug("stdin write incomplete", "name", name, "write_err", werr, "close_err", cerr)
		}
	}()

	go func() {
		waitErr := cmd.Wait()
		killer.reaped()
		res.transition(stateResolved, p.classifyExit(name, waitErr, stdout, stderr, time.Since(start)))
	}()

	out := res.wait()
	log.Debug("agent finished", "name", name, "success", out.Success, "exit_code", out.ExitCode,
		"timed_out", out.TimedOut, "retry", out.ShouldRetry, "duration", out.Duration)
	return out
}

// groupKiller stops a child's process group: SIGTERM first, then SIGKILL
// after the grace period if any member is still alive.
type groupKiller struct {
	grace   time.Duration
	mu      sync.Mutex
	pid     int
	timer   *time.Timer
	settled chan struct{}
}

func newGroupKiller(grace time.Duration) *groupKiller {
	return &groupKiller{grace: grace, settled: make(chan struct{})}
}

// terminate signals the group led by pid and arms the SIGKILL. Only the first
// call has an effect.
func (k *groupKiller) terminate(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.timer != nil {
		return nil
	}
	k.pid = pid
	k.timer = time.AfterFunc(k.grace, k.kill)
	return syscall.Kill(-pid, syscall.SIGTERM)
}

func (k *groupKiller) kill() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if groupAlive(k.pid) {
		_ = syscall.Kill(-k.pid, syscall.SIGKILL)
	}
	k.settleLocked()
}

// reaped is called once the group leader has been waited for. A pending
// SIGKILL is dropped when no member of the group is left, so a recycled
// process group is never signalled.
func (k *groupKiller) reaped() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.timer == nil || groupAlive(k.pid) {
		return
	}
	if k.timer.Stop() {
		k.settleLocked()
	}
}

// wait blocks until a terminated group is gone or has been killed. It returns
// at once when terminate was never called.
func (k *groupKiller) wait() {
	k.mu.Lock()
	armed := k.timer != nil
	k.mu.Unlock()
	if armed {
		<-k.settled
	}
}

func (k *groupKiller) settleLocked() {
	select {
	case <-k.settled:
	default:
		close(k.settled)
	}
}

func groupAlive(pgid int) bool {
	return syscall.Kill(-pgid, 0) == nil
}

func (p *Process) classifyExit(name string, waitErr error, stdout, stderr *cappedBuffer, elapsed time.Duration) Result {
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
		ExitCode: exitCodeOf(waitErr),
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		res.Error = fmt.Sprintf("failed to run %s: %v", name, waitErr)
		return res
	}
	if stdout.Exceeded() || stderr.Exceeded() {
		res.Error = fmt.Sprintf("output exceeded %s", formatBytes(p.limit()))
		return res
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) == "" {
		res.Error = failureText(res.Stderr, res.ExitCode)
		return res
	}
	if err := ValidateOutput(res.Stdout); err != nil {
		res.Error = "output failed validation: " + err.Error()
		res.ShouldRetry = true
		return res
	}
	res.Success = true
	return res
}

func failureText(stderr string, exitCode int) string {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("no output, exit code %d", exitCode)
}

// probeVersion runs `<command> --version`. ok is false when the command is
// missing, fails or exceeds ProbeTimeout.
func probeVersion(ctx context.Context, command string) (version string, ok bool) {
	if _, err := exec.LookPath(command); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	// #nosec G204 - command is a known agent CLI or the configured custom command.
	cmd := exec.CommandContext(ctx, command, "--version")
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// cappedBuffer is a goroutine-safe buffer that keeps at most limit bytes and
// records whether more was offered. Writes never fail so the child is not
// blocked on a full pipe.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	exceeded bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - b.buf.Len()
	if room < len(p) {
		b.exceeded = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exceeded
}

func formatBytes(n int) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
