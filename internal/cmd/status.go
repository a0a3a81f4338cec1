package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted sessions and configured agent commands",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sessions := app.registry.Read()
	fmt.Println(render(titleStyle, "Sessions"))
	printSession("gemini", sessions.Gemini)
	printSession("codex", sessions.Codex)
	if !sessions.UpdatedAt.IsZero() {
		fmt.Printf("  updated: %s\n", sessions.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	fmt.Println()
	fmt.Println(render(titleStyle, "Debate"))
	fmt.Printf("  max rounds: %d\n", app.cfg.Debate.MaxRounds)
	fmt.Printf("  text limit: %d\n", app.cfg.Debate.TextLimit)
	fmt.Printf("  turn timeout: %s\n", app.cfg.TurnTimeout())
	fmt.Printf("  consensus pattern: %s\n", app.cfg.Debate.ConsensusPattern)

	fmt.Println()
	fmt.Println(render(titleStyle, "Commands"))
	fmt.Printf("  gemini start:  %s\n", app.cfg.Agents.Gemini.Start)
	fmt.Printf("  gemini resume: %s\n", app.cfg.Agents.Gemini.Resume)
	fmt.Printf("  codex start:   %s\n", app.cfg.Agents.Codex.Start)
	fmt.Printf("  codex resume:  %s\n", app.cfg.Agents.Codex.Resume)

	fmt.Println()
	fmt.Printf("data dir: %s\n", app.cfg.DataDir)
	return nil
}

func printSession(agent, sessionID string) {
	if sessionID == "" {
		fmt.Printf("  %s: %s\n", render(agentStyle(agent), agent), render(faintStyle, "no session"))
		return
	}
	fmt.Printf("  %s: %s\n", render(agentStyle(agent), agent), sessionID)
}
