package cmd

import (
	"fmt"

	"github.com/coreline-ai/talk-codex-gemini/internal/config"
	"github.com/coreline-ai/talk-codex-gemini/internal/debate"
	"github.com/coreline-ai/talk-codex-gemini/internal/event"
	"github.com/coreline-ai/talk-codex-gemini/internal/invoke"
	"github.com/coreline-ai/talk-codex-gemini/internal/logging"
	"github.com/coreline-ai/talk-codex-gemini/internal/session"
	"github.com/coreline-ai/talk-codex-gemini/internal/transcript"
)

// app wires the configured components together for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	registry  *session.Registry
	store     *transcript.Store
	bus       *event.Bus
	scheduler *debate.Scheduler
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.DataDir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}

	store, err := transcript.NewStore(cfg.DataDir)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open transcript store: %w", err)
	}

	registry := session.NewRegistry(cfg.DataDir)
	bus := event.NewBus()
	invoker := invoke.New(logger)

	scheduler, err := debate.NewScheduler(cfg, invoker, registry, store, bus, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		store:     store,
		bus:       bus,
		scheduler: scheduler,
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Close()
}
