// Package errors provides centralized error definitions and error handling
// utilities for the codebase. It defines domain-specific sentinel errors,
// semantic error types, and error classification helpers.
//
// # Error Types
//
// Sentinel errors represent caller contract violations and well-known
// failure conditions from specific subsystems (debate scheduling, process
// invocation, persistence).
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//   - InvokeError: an agent process exited with a non-zero status
//
// # Usage
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrRunActive) { ... }
//
//	var invokeErr *errors.InvokeError
//	if errors.As(err, &invokeErr) { ... }
//
//	if errors.IsInvalidOperation(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Debate scheduling sentinel errors. These are caller contract violations:
// they are rejected synchronously and never mutate scheduler state.
var (
	// ErrRunActive indicates that a debate run is already occupying the engine.
	ErrRunActive = New("debate already running")
	// ErrAgentNotReady indicates that an agent has not completed a successful connect.
	ErrAgentNotReady = New("agent must be ready")
	// ErrNotRunning indicates that an operation requires a running debate.
	ErrNotRunning = New("debate is not running")
	// ErrNotPaused indicates that an operation requires a paused debate.
	ErrNotPaused = New("debate is not paused")
	// ErrNotStoppable indicates that the debate is not in a stoppable state.
	ErrNotStoppable = New("debate is not running or paused")
	// ErrEmptyTopic indicates that a debate was started with a blank topic.
	ErrEmptyTopic = New("topic must not be empty")
	// ErrUnknownAgent indicates a reference to an agent that does not exist.
	ErrUnknownAgent = New("unknown agent")
)

// Process invocation sentinel errors.
var (
	// ErrInvokerBusy indicates that an invocation was requested while one is active.
	ErrInvokerBusy = New("another invocation is already active")
	// ErrNoSessionID indicates that no session id could be extracted from agent output.
	ErrNoSessionID = New("no session id in agent output")
	// ErrInvokeCanceled indicates that the active invocation was canceled.
	ErrInvokeCanceled = New("invocation canceled")
)

// Persistence sentinel errors.
var (
	// ErrRunNotFound indicates that a transcript run could not be found.
	ErrRunNotFound = New("run not found")
)

// -----------------------------------------------------------------------------
// Semantic Error Types
// -----------------------------------------------------------------------------

// NotFoundError indicates that a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "run", "agent").
	Resource string
	// ID is the identifier that was not found.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Is reports whether this error matches the corresponding sentinel.
func (e *NotFoundError) Is(target error) bool {
	return e.Resource == "run" && target == ErrRunNotFound
}

// NewNotFoundError creates a NotFoundError for the given resource and ID.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates invalid input or configuration.
type ValidationError struct {
	// Field is the name of the invalid field or parameter.
	Field string
	// Message describes why the value is invalid.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TimeoutError indicates that an operation exceeded its allotted time.
type TimeoutError struct {
	// Operation is the operation that timed out (e.g., "gemini turn").
	Operation string
	// Duration is the timeout that was exceeded.
	Duration time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Duration)
}

// NewTimeoutError creates a TimeoutError for the given operation.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

// InvokeError indicates that an agent process exited with a non-zero status.
// It carries the exit code and captured stderr for diagnosis.
type InvokeError struct {
	// Agent is the agent whose process failed.
	Agent string
	// ExitCode is the process exit code.
	ExitCode int
	// Stderr is the captured standard error output.
	Stderr string
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s process exited with code %d", e.Agent, e.ExitCode)
	}
	return fmt.Sprintf("%s process exited with code %d: %s", e.Agent, e.ExitCode, e.Stderr)
}

// NewInvokeError creates an InvokeError for a failed agent process.
func NewInvokeError(agent string, exitCode int, stderr string) *InvokeError {
	return &InvokeError{Agent: agent, ExitCode: exitCode, Stderr: stderr}
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsInvalidOperation reports whether err is a caller contract violation:
// an operation invoked in a state that does not permit it. These errors are
// reported synchronously and never terminate a run.
func IsInvalidOperation(err error) bool {
	for _, sentinel := range []error{
		ErrRunActive,
		ErrAgentNotReady,
		ErrNotRunning,
		ErrNotPaused,
		ErrNotStoppable,
		ErrEmptyTopic,
		ErrUnknownAgent,
		ErrInvokerBusy,
	} {
		if Is(err, sentinel) {
			return true
		}
	}
	var validationErr *ValidationError
	return As(err, &validationErr)
}

// IsTimeout reports whether err represents an exceeded deadline.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return As(err, &timeoutErr)
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	if Is(err, ErrRunNotFound) {
		return true
	}
	var notFoundErr *NotFoundError
	return As(err, &notFoundErr)
}
