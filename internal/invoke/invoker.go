// Package invoke launches one external agent process per turn, streams its
// output line by line, enforces a timeout, and normalizes stdout into
// response text plus a session id.
//
// At most one process is active at a time: the debate scheduler issues one
// invocation per turn and awaits it, and requesting a new invocation while
// one is active is a caller error, not queued. The active process handle is
// owned exclusively by the Invoker; callers reference it only through
// CancelActive.
package invoke

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
	"github.com/coreline-ai/talk-codex-gemini/internal/logging"
)

// killGracePeriod is how long a canceled process gets to exit after
// SIGTERM before the process group is killed.
const killGracePeriod = 1500 * time.Millisecond

// maxLineSize bounds a single streamed output line (long NDJSON results).
const maxLineSize = 16 * 1024 * 1024

// Request describes one agent invocation.
type Request struct {
	// Agent is the agent name, used in errors and logs.
	Agent string
	// Prompt is the turn prompt, substituted into the command template.
	Prompt string
	// SessionID, when set, selects the resume command form.
	SessionID string
	// StartTemplate is the command template for a fresh session.
	StartTemplate string
	// ResumeTemplate is the command template when SessionID is set.
	ResumeTemplate string
	// Timeout bounds the invocation; zero means no timeout.
	Timeout time.Duration
	// OnStdoutLine, when set, receives each stdout line as it arrives,
	// including any trailing partial line once the process exits.
	OnStdoutLine func(string)
	// OnStderrLine, when set, receives each stderr line as it arrives.
	OnStderrLine func(string)
}

// Result holds the outcome of a successful invocation.
type Result struct {
	// Stdout is the full captured standard output.
	Stdout string
	// Stderr is the full captured standard error.
	Stderr string
	// Text is the extracted response text.
	Text string
	// SessionID is the extracted session id, possibly empty.
	SessionID string
	// Duration is how long the process ran.
	Duration time.Duration
}

// Invoker runs agent processes. It is safe for concurrent use, but only one
// invocation may be active at a time.
type Invoker struct {
	logger *logging.Logger

	mu       sync.Mutex
	active   *exec.Cmd
	canceled bool
}

// New creates an Invoker.
func New(logger *logging.Logger) *Invoker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Invoker{logger: logger}
}

// RunAgent executes one turn. It chooses the start or resume command form
// based on whether a session id is supplied, renders the template with
// shell-quoted values, and runs it through the shell in its own process
// group. It blocks until the process exits, the timeout fires, or the
// invocation is canceled.
func (iv *Invoker) RunAgent(ctx context.Context, req Request) (*Result, error) {
	template := req.StartTemplate
	if req.SessionID != "" {
		template = req.ResumeTemplate
	}
	rendered := RenderCommand(template, map[string]string{
		"prompt":     req.Prompt,
		"session_id": req.SessionID,
	})

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", rendered)
	cmd.Env = os.Environ()

	// Run in a dedicated process group so that cancellation kills the whole
	// tree; Node-based agent CLIs spawn children that would otherwise hold
	// the output pipes open and hang Wait.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		}
		return nil
	}
	cmd.WaitDelay = killGracePeriod

	if err := iv.setActive(cmd); err != nil {
		return nil, err
	}
	defer iv.clearActive()

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s agent: stdout pipe: %w", req.Agent, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s agent: stderr pipe: %w", req.Agent, err)
	}

	iv.logger.Debug("agent process starting",
		"agent", req.Agent,
		"resume", req.SessionID != "",
		"timeout", req.Timeout,
		"prompt_len", len(req.Prompt),
	)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s agent: failed to start command: %w", req.Agent, err)
	}

	var stdoutBuf, stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		streamLines(stdoutPipe, &stdoutBuf, req.OnStdoutLine)
	}()
	go func() {
		defer wg.Done()
		streamLines(stderrPipe, &stderrBuf, req.OnStderrLine)
	}()

	wg.Wait()
	waitErr := cmd.Wait()
	duration := time.Since(start)

	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	iv.logger.Debug("agent process finished",
		"agent", req.Agent,
		"duration", duration,
		"stdout_len", len(stdout),
		"err", waitErr,
	)

	if waitErr != nil {
		if iv.wasCanceled() {
			return nil, fmt.Errorf("%s agent: %w", req.Agent, errors.ErrInvokeCanceled)
		}
		if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, errors.NewTimeoutError(req.Agent+" turn", req.Timeout)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s agent: %w", req.Agent, errors.ErrInvokeCanceled)
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, errors.NewInvokeError(req.Agent, exitErr.ExitCode(), strings.TrimSpace(stderr))
		}
		return nil, fmt.Errorf("%s agent: failed to run command: %w", req.Agent, waitErr)
	}

	text, sessionID := Extract(stdout)
	return &Result{
		Stdout:    stdout,
		Stderr:    stderr,
		Text:      text,
		SessionID: sessionID,
		Duration:  duration,
	}, nil
}

// CancelActive requests termination of the currently active process, if any.
// The process group receives SIGTERM immediately and SIGKILL if it has not
// exited after the grace period. Safe to call when nothing is active.
func (iv *Invoker) CancelActive() {
	iv.mu.Lock()
	cmd := iv.active
	if cmd == nil || cmd.Process == nil {
		iv.mu.Unlock()
		return
	}
	iv.canceled = true
	pid := cmd.Process.Pid
	iv.mu.Unlock()

	iv.logger.Info("canceling active agent process", "pid", pid)
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	time.AfterFunc(killGracePeriod, func() {
		iv.mu.Lock()
		stillActive := iv.active != nil && iv.active.Process != nil && iv.active.Process.Pid == pid
		iv.mu.Unlock()
		if stillActive {
			iv.logger.Warn("agent process ignored SIGTERM, killing group", "pid", pid)
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	})
}

// setActive registers the invocation, failing if one is already active.
func (iv *Invoker) setActive(cmd *exec.Cmd) error {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.active != nil {
		return errors.ErrInvokerBusy
	}
	iv.active = cmd
	iv.canceled = false
	return nil
}

// clearActive releases the active slot.
func (iv *Invoker) clearActive() {
	iv.mu.Lock()
	iv.active = nil
	iv.mu.Unlock()
}

// wasCanceled reports whether CancelActive was called for the current run.
func (iv *Invoker) wasCanceled() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.canceled
}

// streamLines reads a pipe incrementally, splitting on line boundaries.
// Each line is appended to buf and handed to the callback as it arrives.
// A trailing partial line is flushed when the pipe closes.
func streamLines(r io.Reader, buf *strings.Builder, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if !first {
			buf.WriteByte('\n')
		}
		first = false
		buf.WriteString(line)
		if onLine != nil {
			onLine(line)
		}
	}
}
