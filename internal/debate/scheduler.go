package debate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/coreline-ai/talk-codex-gemini/internal/config"
	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
	"github.com/coreline-ai/talk-codex-gemini/internal/event"
	"github.com/coreline-ai/talk-codex-gemini/internal/invoke"
	"github.com/coreline-ai/talk-codex-gemini/internal/logging"
	"github.com/coreline-ai/talk-codex-gemini/internal/session"
	"github.com/coreline-ai/talk-codex-gemini/internal/transcript"
)

// emptyResponseLimit aborts a run after this many consecutive
// whitespace-only responses, counted across both agents.
const emptyResponseLimit = 2

// Runner abstracts the process invoker for the scheduler. *invoke.Invoker
// satisfies it; tests supply a scripted fake.
type Runner interface {
	RunAgent(ctx context.Context, req invoke.Request) (*invoke.Result, error)
	CancelActive()
}

// Scheduler drives debate runs. It owns the lifecycle state machine, the
// turn loop, and pause/stop signaling, and is the sole writer of the
// session registry and the transcript store.
type Scheduler struct {
	cfg       *config.Config
	runner    Runner
	registry  *session.Registry
	store     *transcript.Store
	bus       *event.Bus
	logger    *logging.Logger
	consensus *regexp.Regexp

	mu             sync.Mutex
	state          State
	agents         map[Agent]*AgentSession
	pauseRequested bool
	stopRequested  bool
	pauseGate      *waitGate
	emptyStreak    int
	runCancel      context.CancelFunc
	runDone        chan struct{}
}

// NewScheduler creates a Scheduler. Persisted session ids are loaded from
// the registry; agents with a stored id still require a successful
// ConnectAgent probe before a debate can start.
func NewScheduler(cfg *config.Config, runner Runner, registry *session.Registry, store *transcript.Store, bus *event.Bus, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	consensus, err := regexp.Compile(cfg.Debate.ConsensusPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid consensus pattern %q: %w", cfg.Debate.ConsensusPattern, err)
	}

	persisted := registry.Read()
	agents := map[Agent]*AgentSession{
		AgentGemini: {Agent: AgentGemini, SessionID: persisted.Gemini, Status: AgentIdle},
		AgentCodex:  {Agent: AgentCodex, SessionID: persisted.Codex, Status: AgentIdle},
	}

	return &Scheduler{
		cfg:       cfg,
		runner:    runner,
		registry:  registry,
		store:     store,
		bus:       bus,
		logger:    logger,
		consensus: consensus,
		state:     State{Status: StatusIdle},
		agents:    agents,
	}, nil
}

// ConnectAgent probes an agent with a minimal prompt, using its persisted
// session id when one exists. On success the extracted session id must be
// non-empty; the agent becomes ready and the id is persisted. On failure
// the agent moves to error with the reason recorded. Rejected while a run
// is active.
func (s *Scheduler) ConnectAgent(ctx context.Context, agent Agent) error {
	if !agent.Valid() {
		return fmt.Errorf("%w: %q", errors.ErrUnknownAgent, agent)
	}

	s.mu.Lock()
	if s.state.Status.Active() {
		s.mu.Unlock()
		return errors.ErrRunActive
	}
	sess := s.agents[agent]
	sessionID := sess.SessionID
	sess.Status = AgentConnecting
	sess.LastError = ""
	s.mu.Unlock()

	s.publish(event.NewAgentStatusEvent(string(agent), string(AgentConnecting), sessionID, ""))
	s.logger.Info("connecting agent", "agent", agent, "resume", sessionID != "")

	cmds, err := s.cfg.AgentCommand(string(agent))
	if err != nil {
		return s.connectFailed(agent, err)
	}

	result, err := s.runner.RunAgent(ctx, invoke.Request{
		Agent:          string(agent),
		Prompt:         probePrompt,
		SessionID:      sessionID,
		StartTemplate:  cmds.Start,
		ResumeTemplate: cmds.Resume,
		Timeout:        s.cfg.TurnTimeout(),
	})
	if err != nil {
		return s.connectFailed(agent, err)
	}
	if result.SessionID == "" {
		return s.connectFailed(agent, fmt.Errorf("%w: probe output had no session id", errors.ErrNoSessionID))
	}

	if err := s.registry.Upsert(string(agent), result.SessionID); err != nil {
		return s.connectFailed(agent, fmt.Errorf("persist session id: %w", err))
	}

	s.mu.Lock()
	sess.SessionID = result.SessionID
	sess.Status = AgentReady
	sess.LastConnectedAt = time.Now()
	s.mu.Unlock()

	s.publish(event.NewAgentStatusEvent(string(agent), string(AgentReady), result.SessionID, ""))
	s.logger.Info("agent ready", "agent", agent, "session_id", result.SessionID)
	return nil
}

// connectFailed records a probe failure without crashing anything: the
// agent moves to error and the reason is surfaced to the caller and the bus.
func (s *Scheduler) connectFailed(agent Agent, cause error) error {
	s.mu.Lock()
	sess := s.agents[agent]
	sess.Status = AgentError
	sess.LastError = cause.Error()
	s.mu.Unlock()

	s.publish(event.NewAgentStatusEvent(string(agent), string(AgentError), "", cause.Error()))
	s.logger.Warn("agent connect failed", "agent", agent, "error", cause)
	return fmt.Errorf("connect %s: %w", agent, cause)
}

// StartDebate creates a run and launches the turn loop asynchronously.
// maxRounds and textLimit fall back to the configured defaults when zero.
// It returns once the loop is scheduled, not once it completes.
func (s *Scheduler) StartDebate(topic string, maxRounds, textLimit int) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.ErrEmptyTopic
	}
	if maxRounds <= 0 {
		maxRounds = s.cfg.Debate.MaxRounds
	}
	if textLimit <= 0 {
		textLimit = s.cfg.Debate.TextLimit
	}

	s.mu.Lock()
	if s.state.Status.Active() {
		s.mu.Unlock()
		return "", errors.ErrRunActive
	}
	for _, agent := range Agents {
		if s.agents[agent].Status != AgentReady {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %s is %s", errors.ErrAgentNotReady, agent, s.agents[agent].Status)
		}
	}

	summary, err := s.store.CreateRun(topic, maxRounds, textLimit)
	if err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("create run: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.state = State{
		Status:    StatusRunning,
		RunID:     summary.RunID,
		Round:     0,
		Topic:     topic,
		MaxRounds: maxRounds,
		TextLimit: textLimit,
	}
	s.pauseRequested = false
	s.stopRequested = false
	s.pauseGate = nil
	s.emptyStreak = 0
	s.runCancel = cancel
	s.runDone = make(chan struct{})
	done := s.runDone
	s.mu.Unlock()

	s.publish(event.NewDebateStatusEvent(summary.RunID, string(StatusRunning), 0, ""))
	s.logger.Info("debate started",
		"run_id", summary.RunID,
		"topic", topic,
		"max_rounds", maxRounds,
		"text_limit", textLimit,
	)

	go func() {
		defer close(done)
		defer cancel()
		s.runLoop(ctx, summary.RunID, topic, maxRounds, textLimit)
	}()

	return summary.RunID, nil
}

// PauseDebate requests a pause. Valid only while running; the in-flight
// round always finishes both turns before the run actually pauses.
func (s *Scheduler) PauseDebate() error {
	s.mu.Lock()
	if s.state.Status != StatusRunning {
		status := s.state.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot pause while %s", errors.ErrNotRunning, status)
	}
	s.pauseRequested = true
	s.state.Status = StatusPauseRequested
	runID, round := s.state.RunID, s.state.Round
	s.mu.Unlock()

	s.publish(event.NewDebateStatusEvent(runID, string(StatusPauseRequested), round, ""))
	s.logger.Info("pause requested", "run_id", runID, "round", round)
	return nil
}

// ResumeDebate releases a paused run. Valid only while paused.
func (s *Scheduler) ResumeDebate() error {
	s.mu.Lock()
	if s.state.Status != StatusPaused {
		status := s.state.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot resume while %s", errors.ErrNotPaused, status)
	}
	s.pauseRequested = false
	s.state.Status = StatusRunning
	runID, round := s.state.RunID, s.state.Round
	gate := s.pauseGate
	s.pauseGate = nil
	s.mu.Unlock()

	if gate != nil {
		gate.Release()
	}
	s.publish(event.NewDebateStatusEvent(runID, string(StatusRunning), round, ""))
	s.logger.Info("debate resumed", "run_id", runID, "round", round)
	return nil
}

// StopDebate requests termination. Valid from running, pause_requested, or
// paused. The in-flight process (if any) is canceled preemptively and a
// suspended pause wait is released; the loop then terminates with status
// stopped and reason "manual stop".
func (s *Scheduler) StopDebate() error {
	s.mu.Lock()
	switch s.state.Status {
	case StatusRunning, StatusPauseRequested, StatusPaused:
	default:
		status := s.state.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop while %s", errors.ErrNotStoppable, status)
	}
	s.stopRequested = true
	s.state.Status = StatusStopping
	runID, round := s.state.RunID, s.state.Round
	if s.pauseGate != nil {
		s.pauseGate.Release()
		s.pauseGate = nil
	}
	s.mu.Unlock()

	s.publish(event.NewDebateStatusEvent(runID, string(StatusStopping), round, ""))
	s.logger.Info("stop requested", "run_id", runID, "round", round)
	s.runner.CancelActive()
	return nil
}

// GetState returns a deep copy of the debate and agent state.
func (s *Scheduler) GetState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make(map[Agent]AgentSession, len(s.agents))
	for name, sess := range s.agents {
		agents[name] = *sess
	}
	return Snapshot{Debate: s.state, Agents: agents}
}

// GetRun returns the summary and ordered entries for a run.
func (s *Scheduler) GetRun(runID string) (*transcript.Summary, []transcript.Entry, error) {
	return s.store.ReadRun(runID)
}

// Done returns a channel closed when the current run's loop exits. When no
// run has been started it returns an already-closed channel.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runDone == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.runDone
}

// runLoop executes rounds until a termination condition: stop, consensus,
// max rounds, or a failure. Every exit path records a terminal status and
// reason on both the scheduler state and the run summary.
func (s *Scheduler) runLoop(ctx context.Context, runID, topic string, maxRounds, textLimit int) {
	logger := s.logger.WithRun(runID)
	prevResponse := ""

	for round := 1; round <= maxRounds; round++ {
		s.setRound(round)
		logger.Debug("round starting", "round", round)

		if s.isStopRequested() {
			s.finish(runID, StatusStopped, "manual stop", nil)
			return
		}

		var initiatorPrompt string
		if round == 1 {
			initiatorPrompt = openingPrompt(topic)
		} else {
			initiatorPrompt = continuationPrompt(topic, prevResponse, textLimit)
		}

		initiatorResponse, err := s.turn(ctx, runID, round, AgentGemini, initiatorPrompt)
		if err != nil {
			s.finishAfterTurnError(runID, err)
			return
		}

		if s.isStopRequested() {
			s.finish(runID, StatusStopped, "manual stop", nil)
			return
		}

		responderResponse, err := s.turn(ctx, runID, round, AgentCodex, responderPrompt(topic, initiatorResponse, textLimit))
		if err != nil {
			s.finishAfterTurnError(runID, err)
			return
		}

		if s.consensus.MatchString(initiatorResponse) || s.consensus.MatchString(responderResponse) {
			logger.Info("consensus detected", "round", round)
			s.finish(runID, StatusCompleted, "consensus detected", nil)
			return
		}

		if s.isStopRequested() {
			s.finish(runID, StatusStopped, "manual stop", nil)
			return
		}

		if s.shouldPause() {
			if stopped := s.pauseUntilReleased(runID, round); stopped {
				s.finish(runID, StatusStopped, "manual stop", nil)
				return
			}
		}

		prevResponse = responderResponse
	}

	s.finish(runID, StatusCompleted, "max rounds reached", nil)
}

// turn invokes one agent, persists the transcript entry, handles mid-run
// session rotation, and tracks the empty-response streak. The returned
// response is the full, untruncated text.
func (s *Scheduler) turn(ctx context.Context, runID string, round int, agent Agent, prompt string) (string, error) {
	cmds, err := s.cfg.AgentCommand(string(agent))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	sessionID := s.agents[agent].SessionID
	s.mu.Unlock()

	result, err := s.runner.RunAgent(ctx, invoke.Request{
		Agent:          string(agent),
		Prompt:         prompt,
		SessionID:      sessionID,
		StartTemplate:  cmds.Start,
		ResumeTemplate: cmds.Resume,
		Timeout:        s.cfg.TurnTimeout(),
	})
	if err != nil {
		return "", err
	}

	// Sessions can rotate mid-run; persist the new id immediately so a
	// restart resumes the right conversation.
	if result.SessionID != "" && result.SessionID != sessionID {
		if err := s.registry.Upsert(string(agent), result.SessionID); err != nil {
			return "", fmt.Errorf("persist rotated session id for %s: %w", agent, err)
		}
		s.mu.Lock()
		s.agents[agent].SessionID = result.SessionID
		s.mu.Unlock()
		s.publish(event.NewAgentStatusEvent(string(agent), string(AgentReady), result.SessionID, ""))
		s.logger.Info("session id rotated", "agent", agent, "session_id", result.SessionID)
	}

	entry := transcript.Entry{
		RunID:     runID,
		Timestamp: time.Now(),
		Round:     round,
		From:      string(agent),
		To:        string(agent.Opponent()),
		Prompt:    prompt,
		Response:  result.Text,
		RawStdout: result.Stdout,
		RawStderr: result.Stderr,
	}
	if err := s.store.Append(entry); err != nil {
		return "", fmt.Errorf("append transcript entry: %w", err)
	}
	if _, err := s.store.UpdateSummary(runID, transcript.SummaryPatch{Round: intPtr(round)}); err != nil {
		return "", fmt.Errorf("update run summary: %w", err)
	}

	s.publish(event.NewTurnCompletedEvent(runID, round, string(agent), result.Text, result.Duration))
	s.logger.Debug("turn completed",
		"run_id", runID,
		"round", round,
		"agent", agent,
		"response_len", len(result.Text),
		"duration", result.Duration,
	)

	if strings.TrimSpace(result.Text) == "" {
		s.mu.Lock()
		s.emptyStreak++
		streak := s.emptyStreak
		s.mu.Unlock()
		if streak >= emptyResponseLimit {
			return "", fmt.Errorf("%d consecutive empty responses, aborting run", streak)
		}
	} else {
		s.mu.Lock()
		s.emptyStreak = 0
		s.mu.Unlock()
	}

	return result.Text, nil
}

// pauseUntilReleased transitions to paused and blocks until resume or stop
// releases the gate. Returns true if the run should stop.
func (s *Scheduler) pauseUntilReleased(runID string, round int) (stopped bool) {
	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return true
	}
	gate := newWaitGate()
	s.pauseGate = gate
	s.state.Status = StatusPaused
	s.mu.Unlock()

	if _, err := s.store.UpdateSummary(runID, transcript.SummaryPatch{Status: strPtr(transcript.StatusPaused)}); err != nil {
		s.logger.Warn("failed to record paused status", "run_id", runID, "error", err)
	}
	s.publish(event.NewDebateStatusEvent(runID, string(StatusPaused), round, ""))
	s.logger.Info("debate paused", "run_id", runID, "round", round)

	<-gate.Done()

	s.mu.Lock()
	stopped = s.stopRequested
	s.mu.Unlock()

	if !stopped {
		if _, err := s.store.UpdateSummary(runID, transcript.SummaryPatch{Status: strPtr(transcript.StatusRunning)}); err != nil {
			s.logger.Warn("failed to record resumed status", "run_id", runID, "error", err)
		}
	}
	return stopped
}

// finishAfterTurnError terminates the run after a turn failure. A failure
// caused by a stop request is reported as a manual stop, not an error.
func (s *Scheduler) finishAfterTurnError(runID string, err error) {
	if s.isStopRequested() || errors.Is(err, errors.ErrInvokeCanceled) {
		s.finish(runID, StatusStopped, "manual stop", nil)
		return
	}
	s.finish(runID, StatusStopped, err.Error(), err)
}

// finish records a terminal status and reason on the scheduler state and
// the run summary, and publishes the terminal status event plus an error
// event when cause is non-nil.
func (s *Scheduler) finish(runID string, status Status, reason string, cause error) {
	s.mu.Lock()
	s.state.Status = status
	s.state.Reason = reason
	round := s.state.Round
	s.pauseRequested = false
	s.pauseGate = nil
	s.mu.Unlock()

	summaryStatus := transcript.StatusCompleted
	if status == StatusStopped {
		summaryStatus = transcript.StatusStopped
	}
	if _, err := s.store.UpdateSummary(runID, transcript.SummaryPatch{
		Status: strPtr(summaryStatus),
		Reason: strPtr(reason),
	}); err != nil {
		s.logger.Error("failed to record terminal status", "run_id", runID, "error", err)
	}

	if cause != nil {
		s.publish(event.NewDebateErrorEvent(runID, reason))
	}
	s.publish(event.NewDebateStatusEvent(runID, string(status), round, reason))
	s.logger.Info("debate finished", "run_id", runID, "status", status, "round", round, "reason", reason)
}

func (s *Scheduler) setRound(round int) {
	s.mu.Lock()
	s.state.Round = round
	s.mu.Unlock()
}

func (s *Scheduler) isStopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *Scheduler) shouldPause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseRequested
}

func (s *Scheduler) publish(evt event.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
