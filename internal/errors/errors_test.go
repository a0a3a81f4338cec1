package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("run", "run-123")

	if got, want := err.Error(), "run not found: run-123"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrRunNotFound) {
		t.Error("run NotFoundError should match ErrRunNotFound")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() should be true for NotFoundError")
	}
	if !IsNotFound(fmt.Errorf("read run: %w", err)) {
		t.Error("IsNotFound() should see through wrapping")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("gemini turn", 5*time.Second)

	if got, want := err.Error(), "gemini turn timed out after 5s"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() should be true for TimeoutError")
	}
	if IsTimeout(New("some other error")) {
		t.Error("IsTimeout() should be false for unrelated errors")
	}
}

func TestInvokeError(t *testing.T) {
	err := NewInvokeError("codex", 2, "boom")
	if got, want := err.Error(), "codex process exited with code 2: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := NewInvokeError("codex", 1, "")
	if got, want := bare.Error(), "codex process exited with code 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var invokeErr *InvokeError
	if !As(fmt.Errorf("turn failed: %w", err), &invokeErr) {
		t.Fatal("As() should unwrap to *InvokeError")
	}
	if invokeErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", invokeErr.ExitCode)
	}
}

func TestIsInvalidOperation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"run active", ErrRunActive, true},
		{"agent not ready wrapped", fmt.Errorf("gemini: %w", ErrAgentNotReady), true},
		{"not running", ErrNotRunning, true},
		{"empty topic", ErrEmptyTopic, true},
		{"validation error", NewValidationError("maxRounds", "must be >= 1"), true},
		{"invoker busy", ErrInvokerBusy, true},
		{"timeout", NewTimeoutError("turn", time.Second), false},
		{"plain error", New("boom"), false},
		{"not found", ErrRunNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvalidOperation(tt.err); got != tt.want {
				t.Errorf("IsInvalidOperation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("textLimit", "must be >= 1")
	if got, want := err.Error(), "invalid textLimit: must be >= 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
