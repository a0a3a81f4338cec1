package invoke

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
	"github.com/coreline-ai/talk-codex-gemini/internal/logging"
)

func newTestInvoker() *Invoker {
	return New(logging.NopLogger())
}

func TestRunAgentStartTemplate(t *testing.T) {
	iv := newTestInvoker()

	result, err := iv.RunAgent(context.Background(), Request{
		Agent:         "gemini",
		Prompt:        "hello world",
		StartTemplate: "printf '%s' {prompt}",
	})
	if err != nil {
		t.Fatalf("RunAgent: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", result.Duration)
	}
}

func TestRunAgentResumeTemplateWhenSessionSet(t *testing.T) {
	iv := newTestInvoker()

	result, err := iv.RunAgent(context.Background(), Request{
		Agent:          "codex",
		Prompt:         "next turn",
		SessionID:      "sess-1",
		StartTemplate:  "printf 'start'",
		ResumeTemplate: "printf 'resume %s %s' {session_id} {prompt}",
	})
	if err != nil {
		t.Fatalf("RunAgent: %v", err)
	}
	if result.Text != "resume sess-1 next turn" {
		t.Errorf("Text = %q, want resume form", result.Text)
	}
}

func TestRunAgentExtractsJSON(t *testing.T) {
	iv := newTestInvoker()

	result, err := iv.RunAgent(context.Background(), Request{
		Agent:         "gemini",
		Prompt:        "unused",
		StartTemplate: `printf '{"response": "structured", "session_id": "s-9"}'`,
	})
	if err != nil {
		t.Fatalf("RunAgent: %v", err)
	}
	if result.Text != "structured" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.SessionID != "s-9" {
		t.Errorf("SessionID = %q", result.SessionID)
	}
}

func TestRunAgentQuotesPrompt(t *testing.T) {
	iv := newTestInvoker()

	prompt := "it's a test; echo injected"
	result, err := iv.RunAgent(context.Background(), Request{
		Agent:         "gemini",
		Prompt:        prompt,
		StartTemplate: "printf '%s' {prompt}",
	})
	if err != nil {
		t.Fatalf("RunAgent: %v", err)
	}
	if result.Text != prompt {
		t.Errorf("Text = %q, want prompt unmodified", result.Text)
	}
}

func TestRunAgentTimeout(t *testing.T) {
	iv := newTestInvoker()

	start := time.Now()
	_, err := iv.RunAgent(context.Background(), Request{
		Agent:         "codex",
		Prompt:        "x",
		StartTemplate: "sleep 10",
		Timeout:       100 * time.Millisecond,
	})
	if !errors.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v, process group not reaped", elapsed)
	}
}

func TestRunAgentNonZeroExit(t *testing.T) {
	iv := newTestInvoker()

	_, err := iv.RunAgent(context.Background(), Request{
		Agent:         "codex",
		Prompt:        "x",
		StartTemplate: "printf 'boom' >&2; exit 3",
	})

	var invokeErr *errors.InvokeError
	if !errors.As(err, &invokeErr) {
		t.Fatalf("err = %v, want *InvokeError", err)
	}
	if invokeErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", invokeErr.ExitCode)
	}
	if invokeErr.Stderr != "boom" {
		t.Errorf("Stderr = %q", invokeErr.Stderr)
	}
	if invokeErr.Agent != "codex" {
		t.Errorf("Agent = %q", invokeErr.Agent)
	}
}

func TestRunAgentStreamsLines(t *testing.T) {
	iv := newTestInvoker()

	var mu sync.Mutex
	var lines []string
	result, err := iv.RunAgent(context.Background(), Request{
		Agent:         "gemini",
		Prompt:        "x",
		StartTemplate: `printf 'one\ntwo\npartial'`,
		OnStdoutLine: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("RunAgent: %v", err)
	}

	want := []string{"one", "two", "partial"}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if result.Stdout != "one\ntwo\npartial" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestRunAgentRejectsConcurrent(t *testing.T) {
	iv := newTestInvoker()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = iv.RunAgent(context.Background(), Request{
			Agent:         "gemini",
			Prompt:        "x",
			StartTemplate: "echo started; sleep 10",
			OnStdoutLine: func(string) {
				select {
				case started <- struct{}{}:
				default:
				}
			},
		})
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first invocation never started")
	}

	_, err := iv.RunAgent(context.Background(), Request{
		Agent:         "codex",
		Prompt:        "x",
		StartTemplate: "printf 'x'",
	})
	if !errors.Is(err, errors.ErrInvokerBusy) {
		t.Errorf("err = %v, want ErrInvokerBusy", err)
	}

	iv.CancelActive()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("canceled invocation never returned")
	}
}

func TestCancelActiveInterruptsRun(t *testing.T) {
	iv := newTestInvoker()

	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		_, err := iv.RunAgent(context.Background(), Request{
			Agent:         "gemini",
			Prompt:        "x",
			StartTemplate: "echo started; sleep 30",
			OnStdoutLine: func(string) {
				select {
				case started <- struct{}{}:
				default:
				}
			},
		})
		errCh <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("invocation never started")
	}

	iv.CancelActive()

	select {
	case err := <-errCh:
		if !errors.Is(err, errors.ErrInvokeCanceled) {
			t.Errorf("err = %v, want ErrInvokeCanceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("invocation did not stop after cancel")
	}
}

func TestCancelActiveNoopWhenIdle(t *testing.T) {
	iv := newTestInvoker()
	iv.CancelActive()

	// The invoker stays usable after a no-op cancel.
	result, err := iv.RunAgent(context.Background(), Request{
		Agent:         "gemini",
		Prompt:        "x",
		StartTemplate: "printf 'ok'",
	})
	if err != nil {
		t.Fatalf("RunAgent after noop cancel: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q", result.Text)
	}
}
