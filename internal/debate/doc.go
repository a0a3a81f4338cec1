// Package debate implements the turn-scheduling orchestrator that drives a
// strictly alternating conversation between two external CLI agents.
//
// Gemini initiates, codex responds; a round is one initiator turn followed
// by one responder turn. The scheduler owns the run lifecycle, the pause
// and stop flags, consensus evaluation, and context forwarding, and is the
// sole writer of the session registry and the transcript store.
//
// # Run Lifecycle
//
// A run progresses through the following states:
//
//	idle            --start-->                 running
//	running         --pause request-->         pause_requested
//	pause_requested --round pair completes-->  paused
//	paused          --resume-->                running
//	running         --consensus/max rounds-->  completed
//	{running,pause_requested,paused} --stop--> stopping --> stopped
//
// A pause never interrupts a round mid-flight: the in-progress pair of
// turns always completes first. A stop cancels the in-flight process.
//
// # Thread Safety
//
// Scheduler is safe for concurrent use. All state mutations are protected
// by an internal mutex, and GetState returns deep copies.
package debate
