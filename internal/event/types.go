package event

import "time"

// Event type identifiers.
const (
	TypeAgentStatus   = "agent.status"
	TypeDebateStatus  = "debate.status"
	TypeTurnCompleted = "debate.turn"
	TypeDebateError   = "debate.error"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "debate.turn").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Agent Events
// -----------------------------------------------------------------------------

// AgentStatusEvent is published when an agent's connection status changes:
// on connect attempts, successful probes, connect failures, and mid-run
// session-id rotation.
type AgentStatusEvent struct {
	baseEvent
	// Agent is the agent name ("gemini" or "codex").
	Agent string
	// Status is the new agent status (idle, connecting, ready, error).
	Status string
	// SessionID is the agent's current session identifier, if any.
	SessionID string
	// Reason carries the failure reason when Status is "error".
	Reason string
}

// NewAgentStatusEvent creates an AgentStatusEvent.
func NewAgentStatusEvent(agent, status, sessionID, reason string) AgentStatusEvent {
	return AgentStatusEvent{
		baseEvent: newBaseEvent(TypeAgentStatus),
		Agent:     agent,
		Status:    status,
		SessionID: sessionID,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Debate Events
// -----------------------------------------------------------------------------

// DebateStatusEvent is published on every debate state transition.
type DebateStatusEvent struct {
	baseEvent
	// RunID identifies the run, empty only for the idle state.
	RunID string
	// Status is the new debate status.
	Status string
	// Round is the current round number.
	Round int
	// Reason explains terminal transitions ("consensus detected",
	// "max rounds reached", "manual stop", or a failure message).
	Reason string
}

// NewDebateStatusEvent creates a DebateStatusEvent.
func NewDebateStatusEvent(runID, status string, round int, reason string) DebateStatusEvent {
	return DebateStatusEvent{
		baseEvent: newBaseEvent(TypeDebateStatus),
		RunID:     runID,
		Status:    status,
		Round:     round,
		Reason:    reason,
	}
}

// TurnCompletedEvent is published after each turn's transcript entry has
// been persisted. Response carries the full, untruncated response text.
type TurnCompletedEvent struct {
	baseEvent
	// RunID identifies the run.
	RunID string
	// Round is the round this turn belongs to.
	Round int
	// Agent is the agent that produced the response.
	Agent string
	// Response is the full response text.
	Response string
	// Duration is how long the turn took.
	Duration time.Duration
}

// NewTurnCompletedEvent creates a TurnCompletedEvent.
func NewTurnCompletedEvent(runID string, round int, agent, response string, duration time.Duration) TurnCompletedEvent {
	return TurnCompletedEvent{
		baseEvent: newBaseEvent(TypeTurnCompleted),
		RunID:     runID,
		Round:     round,
		Agent:     agent,
		Response:  response,
		Duration:  duration,
	}
}

// DebateErrorEvent is published when a run terminates because of a failure:
// a turn timeout, a process failure, or empty-response exhaustion.
type DebateErrorEvent struct {
	baseEvent
	// RunID identifies the run that failed.
	RunID string
	// Message is the failure description, matching RunSummary.Reason.
	Message string
}

// NewDebateErrorEvent creates a DebateErrorEvent.
func NewDebateErrorEvent(runID, message string) DebateErrorEvent {
	return DebateErrorEvent{
		baseEvent: newBaseEvent(TypeDebateError),
		RunID:     runID,
		Message:   message,
	}
}
