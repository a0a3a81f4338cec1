// Package event defines the notification types the debate scheduler emits
// and a synchronous pub-sub bus for delivering them.
//
// The scheduler publishes an event whenever agent status changes, debate
// status changes, a turn completes, or an error occurs. Subscribers (the CLI
// reporter, tests) register handlers on the bus; delivery is synchronous and
// in registration order, so the scheduler's ordering guarantees carry through
// to observers. Handlers must not block.
//
// Event type identifiers follow the "category.action" convention:
//
//	agent.status    AgentStatusEvent
//	debate.status   DebateStatusEvent
//	debate.turn     TurnCompletedEvent
//	debate.error    DebateErrorEvent
package event
