package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coreline-ai/talk-codex-gemini/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "talk",
	Short: "Turn-based debate orchestrator for the gemini and codex CLIs",
	Long: `Talk drives a strictly alternating debate between the gemini and codex
CLI agents: gemini opens each round, codex responds. Runs can be paused at
round boundaries, stopped mid-turn, and end early when either agent
signals consensus. Every turn is persisted to an append-only transcript.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/talk/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TALK")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TALK_DEBATE_MAX_ROUNDS for debate.max_rounds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
