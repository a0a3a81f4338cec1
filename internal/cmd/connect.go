package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreline-ai/talk-codex-gemini/internal/debate"
)

var connectCmd = &cobra.Command{
	Use:   "connect [gemini|codex|all]",
	Short: "Probe agents and persist their session ids",
	Long: `Send a minimal probe prompt to one or both agents, verifying that the
CLI responds and yields a session id. Session ids are persisted and reused
on the next connect or run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	var agents []debate.Agent
	switch target {
	case "all":
		agents = debate.Agents
	case string(debate.AgentGemini):
		agents = []debate.Agent{debate.AgentGemini}
	case string(debate.AgentCodex):
		agents = []debate.Agent{debate.AgentCodex}
	default:
		return fmt.Errorf("unknown agent %q (expected gemini, codex, or all)", target)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var failed bool
	for _, agent := range agents {
		fmt.Printf("%s connecting...\n", render(agentStyle(string(agent)), string(agent)))
		if err := app.scheduler.ConnectAgent(cmd.Context(), agent); err != nil {
			failed = true
			fmt.Printf("  %s %v\n", render(errorStyle, "error:"), err)
			continue
		}
		snap := app.scheduler.GetState()
		fmt.Printf("  ready (session %s)\n", snap.Agents[agent].SessionID)
	}

	if failed {
		return fmt.Errorf("one or more agents failed to connect")
	}
	return nil
}
