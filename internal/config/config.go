// Package config holds the application configuration, loaded through viper
// from a config file, environment variables, and defaults.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
)

// Placeholders recognized in agent command templates.
const (
	PromptPlaceholder    = "{prompt}"
	SessionIDPlaceholder = "{session_id}"
)

// Config represents the complete application configuration.
type Config struct {
	// DataDir is the root directory for persisted state: the session
	// registry, run transcripts, and the debug log.
	DataDir string        `mapstructure:"data_dir"`
	Debate  DebateConfig  `mapstructure:"debate"`
	Agents  AgentsConfig  `mapstructure:"agents"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DebateConfig controls debate scheduling behavior.
type DebateConfig struct {
	// MaxRounds is the default number of rounds before a run completes (min: 1).
	MaxRounds int `mapstructure:"max_rounds"`
	// TextLimit is the default maximum number of characters of a prior
	// response forwarded into the next prompt (min: 1). The transcript
	// always keeps the full text.
	TextLimit int `mapstructure:"text_limit"`
	// TurnTimeoutSeconds is the per-turn process timeout in seconds.
	TurnTimeoutSeconds int `mapstructure:"turn_timeout_seconds"`
	// ConsensusPattern is a regular expression; a match in either agent's
	// response ends the run early with reason "consensus detected".
	ConsensusPattern string `mapstructure:"consensus_pattern"`
}

// AgentsConfig holds the command templates for both agents.
type AgentsConfig struct {
	Gemini AgentCommandConfig `mapstructure:"gemini"`
	Codex  AgentCommandConfig `mapstructure:"codex"`
}

// AgentCommandConfig holds the start and resume command templates for one
// agent. Templates are rendered by the process invoker with every placeholder
// value individually shell-quoted, then executed through the shell.
type AgentCommandConfig struct {
	// Start is the command template for a fresh session.
	// Must contain {prompt}.
	Start string `mapstructure:"start"`
	// Resume is the command template for resuming an existing session.
	// Must contain {prompt} and {session_id}.
	Resume string `mapstructure:"resume"`
}

// LoggingConfig controls debug log output.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, or ERROR.
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values with viper.
// Call before reading the config file so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("data_dir", defaultDataDir())

	viper.SetDefault("debate.max_rounds", 10)
	viper.SetDefault("debate.text_limit", 4000)
	viper.SetDefault("debate.turn_timeout_seconds", 300)
	viper.SetDefault("debate.consensus_pattern", `(?im)^\s*(합의|consensus)`)

	viper.SetDefault("agents.gemini.start",
		"gemini -y --output-format json -p {prompt}")
	viper.SetDefault("agents.gemini.resume",
		"gemini -y --output-format json --resume {session_id} -p {prompt}")
	viper.SetDefault("agents.codex.start",
		"codex exec --json --skip-git-repo-check {prompt}")
	viper.SetDefault("agents.codex.resume",
		"codex exec resume {session_id} --json --skip-git-repo-check {prompt}")

	viper.SetDefault("logging.level", "INFO")
}

// Load unmarshals the merged viper state into a Config and validates it.
// Template validation happens here, at startup: a missing placeholder is a
// configuration error, never a runtime error.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.NewValidationError("config", err.Error())
	}

	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.NewValidationError("data_dir", "must not be empty")
	}
	if c.Debate.MaxRounds < 1 {
		return errors.NewValidationError("debate.max_rounds", "must be >= 1")
	}
	if c.Debate.TextLimit < 1 {
		return errors.NewValidationError("debate.text_limit", "must be >= 1")
	}
	if c.Debate.TurnTimeoutSeconds < 1 {
		return errors.NewValidationError("debate.turn_timeout_seconds", "must be >= 1")
	}
	if _, err := regexp.Compile(c.Debate.ConsensusPattern); err != nil {
		return errors.NewValidationError("debate.consensus_pattern", err.Error())
	}

	for _, tc := range []struct {
		agent string
		cmds  AgentCommandConfig
	}{
		{"gemini", c.Agents.Gemini},
		{"codex", c.Agents.Codex},
	} {
		if err := validateTemplates(tc.agent, tc.cmds); err != nil {
			return err
		}
	}
	return nil
}

// validateTemplates checks that one agent's command templates carry the
// required placeholders.
func validateTemplates(agent string, cmds AgentCommandConfig) error {
	if !strings.Contains(cmds.Start, PromptPlaceholder) {
		return errors.NewValidationError(
			"agents."+agent+".start", "template must contain "+PromptPlaceholder)
	}
	if !strings.Contains(cmds.Resume, PromptPlaceholder) {
		return errors.NewValidationError(
			"agents."+agent+".resume", "template must contain "+PromptPlaceholder)
	}
	if !strings.Contains(cmds.Resume, SessionIDPlaceholder) {
		return errors.NewValidationError(
			"agents."+agent+".resume", "template must contain "+SessionIDPlaceholder)
	}
	return nil
}

// AgentCommand returns the command templates for the named agent.
func (c *Config) AgentCommand(agent string) (AgentCommandConfig, error) {
	switch agent {
	case "gemini":
		return c.Agents.Gemini, nil
	case "codex":
		return c.Agents.Codex, nil
	default:
		return AgentCommandConfig{}, errors.ErrUnknownAgent
	}
}

// TurnTimeout returns the per-turn timeout as a duration.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Debate.TurnTimeoutSeconds) * time.Second
}

// ConfigDir returns the directory searched for the config file.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "talk")
}

// defaultDataDir returns the default location for persisted state.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".talk"
	}
	return filepath.Join(home, ".talk")
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
