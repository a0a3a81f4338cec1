package config

import (
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
)

// loadDefaults resets viper and loads a Config from defaults only.
func loadDefaults(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	SetDefaults()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults error = %v", err)
	}
	return cfg
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := loadDefaults(t)

	if cfg.Debate.MaxRounds != 10 {
		t.Errorf("MaxRounds = %d, want 10", cfg.Debate.MaxRounds)
	}
	if cfg.Debate.TextLimit != 4000 {
		t.Errorf("TextLimit = %d, want 4000", cfg.Debate.TextLimit)
	}
	if cfg.Debate.TurnTimeoutSeconds != 300 {
		t.Errorf("TurnTimeoutSeconds = %d, want 300", cfg.Debate.TurnTimeoutSeconds)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if !strings.Contains(cfg.Agents.Gemini.Start, PromptPlaceholder) {
		t.Errorf("gemini start template %q missing %s", cfg.Agents.Gemini.Start, PromptPlaceholder)
	}
	if !strings.Contains(cfg.Agents.Codex.Resume, SessionIDPlaceholder) {
		t.Errorf("codex resume template %q missing %s", cfg.Agents.Codex.Resume, SessionIDPlaceholder)
	}
}

func TestValidateRejectsMissingPromptPlaceholder(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Agents.Gemini.Start = "gemini -p prompt-goes-here"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail for a start template without {prompt}")
	}
	var validationErr *errors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error type = %T, want *errors.ValidationError", err)
	}
	if validationErr.Field != "agents.gemini.start" {
		t.Errorf("Field = %q, want %q", validationErr.Field, "agents.gemini.start")
	}
}

func TestValidateRejectsMissingSessionIDPlaceholder(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Agents.Codex.Resume = "codex exec --json {prompt}"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail for a resume template without {session_id}")
	}
	if !strings.Contains(err.Error(), "{session_id}") {
		t.Errorf("error %q should name the missing placeholder", err)
	}
}

func TestValidateRejectsBadBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max rounds", func(c *Config) { c.Debate.MaxRounds = 0 }},
		{"zero text limit", func(c *Config) { c.Debate.TextLimit = 0 }},
		{"zero timeout", func(c *Config) { c.Debate.TurnTimeoutSeconds = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "  " }},
		{"bad consensus pattern", func(c *Config) { c.Debate.ConsensusPattern = "([" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestAgentCommand(t *testing.T) {
	cfg := loadDefaults(t)

	gemini, err := cfg.AgentCommand("gemini")
	if err != nil {
		t.Fatalf("AgentCommand(gemini) error = %v", err)
	}
	if gemini.Start != cfg.Agents.Gemini.Start {
		t.Errorf("gemini start = %q, want %q", gemini.Start, cfg.Agents.Gemini.Start)
	}

	if _, err := cfg.AgentCommand("claude"); !errors.Is(err, errors.ErrUnknownAgent) {
		t.Errorf("AgentCommand(claude) error = %v, want ErrUnknownAgent", err)
	}
}

func TestDefaultConsensusPatternMatchesKoreanMarker(t *testing.T) {
	cfg := loadDefaults(t)

	// The default pattern must match the agreement marker the agents are
	// instructed to emit, anywhere in a multi-line response.
	pattern := cfg.Debate.ConsensusPattern
	for _, response := range []string{
		"합의: 동의합니다.",
		"some preamble\n합의: 동의합니다.",
		"CONSENSUS: we agree",
	} {
		matched, err := regexp.MatchString(pattern, response)
		if err != nil {
			t.Fatalf("pattern %q failed to compile: %v", pattern, err)
		}
		if !matched {
			t.Errorf("pattern %q should match %q", pattern, response)
		}
	}

	matched, _ := regexp.MatchString(pattern, "we have not agreed yet")
	if matched {
		t.Error("pattern should not match a non-consensus response")
	}
}
