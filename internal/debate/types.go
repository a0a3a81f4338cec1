package debate

import "time"

// Agent identifies one of the two debate participants.
type Agent string

const (
	// AgentGemini is the initiator: it opens every round.
	AgentGemini Agent = "gemini"

	// AgentCodex is the responder: it answers the initiator within a round.
	AgentCodex Agent = "codex"
)

// Agents lists both participants in turn order.
var Agents = []Agent{AgentGemini, AgentCodex}

// Opponent returns the other participant.
func (a Agent) Opponent() Agent {
	if a == AgentGemini {
		return AgentCodex
	}
	return AgentGemini
}

// Valid reports whether a names a known agent.
func (a Agent) Valid() bool {
	return a == AgentGemini || a == AgentCodex
}

// AgentStatus represents an agent's connection state.
type AgentStatus string

const (
	// AgentIdle indicates no connection attempt has been made.
	AgentIdle AgentStatus = "idle"

	// AgentConnecting indicates a probe invocation is in flight.
	AgentConnecting AgentStatus = "connecting"

	// AgentReady indicates the probe succeeded and a session id is held.
	AgentReady AgentStatus = "ready"

	// AgentError indicates the last connection attempt failed.
	AgentError AgentStatus = "error"
)

// Status represents the debate run state.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusRunning        Status = "running"
	StatusPauseRequested Status = "pause_requested"
	StatusPaused         Status = "paused"
	StatusStopping       Status = "stopping"
	StatusStopped        Status = "stopped"
	StatusCompleted      Status = "completed"
)

// Active reports whether a run currently occupies the scheduler. Starting
// a new run or reconnecting an agent is only allowed when no run is active.
func (s Status) Active() bool {
	switch s {
	case StatusRunning, StatusPauseRequested, StatusPaused, StatusStopping:
		return true
	}
	return false
}

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusCompleted
}

// AgentSession tracks connection state for one agent. Exactly two exist,
// created at scheduler construction from the persisted registry and
// overwritten on connect or mid-run session rotation, never deleted.
type AgentSession struct {
	Agent           Agent
	SessionID       string
	Status          AgentStatus
	LastConnectedAt time.Time
	LastError       string
}

// State is the debate lifecycle state. Status != idle implies RunID != "".
type State struct {
	Status    Status
	RunID     string
	Round     int
	Topic     string
	MaxRounds int
	TextLimit int
	Reason    string
}

// Snapshot is a point-in-time deep copy of scheduler state, safe for
// observers to hold and mutate.
type Snapshot struct {
	Debate State
	Agents map[Agent]AgentSession
}
