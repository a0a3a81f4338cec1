package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreline-ai/talk-codex-gemini/internal/debate"
	"github.com/coreline-ai/talk-codex-gemini/internal/event"
	"github.com/coreline-ai/talk-codex-gemini/internal/util"
)

// displayLimit bounds how much of a response is echoed to the terminal.
// The transcript always keeps the full text.
const displayLimit = 2000

var (
	runTopic     string
	runMaxRounds int
	runTextLimit int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a debate between gemini and codex",
	Long: `Connect both agents, start a debate on the given topic, and stream the
turns to the terminal. The run ends on consensus, after the configured
number of rounds, or on Ctrl-C (first interrupt stops the run gracefully,
a second one exits immediately).`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "debate topic (required)")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 0, "rounds before the debate completes (default from config)")
	runCmd.Flags().IntVar(&runTextLimit, "text-limit", 0, "max characters of a reply forwarded into the next prompt (default from config)")
	_ = runCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.bus.Subscribe(event.TypeTurnCompleted, func(evt event.Event) {
		turn := evt.(event.TurnCompletedEvent)
		header := fmt.Sprintf("[round %d] %s (%s)", turn.Round, turn.Agent, turn.Duration.Round(time.Millisecond))
		fmt.Printf("\n%s\n%s\n", render(agentStyle(turn.Agent), header), util.TruncateString(turn.Response, displayLimit))
	})
	app.bus.Subscribe(event.TypeDebateStatus, func(evt event.Event) {
		status := evt.(event.DebateStatusEvent)
		line := fmt.Sprintf("-- %s", status.Status)
		if status.Reason != "" {
			line += ": " + status.Reason
		}
		fmt.Println(render(faintStyle, line))
	})
	app.bus.Subscribe(event.TypeDebateError, func(evt event.Event) {
		derr := evt.(event.DebateErrorEvent)
		fmt.Println(render(errorStyle, "error: "+derr.Message))
	})

	for _, agent := range debate.Agents {
		fmt.Printf("connecting %s...\n", render(agentStyle(string(agent)), string(agent)))
		if err := app.scheduler.ConnectAgent(cmd.Context(), agent); err != nil {
			return err
		}
	}

	runID, err := app.scheduler.StartDebate(runTopic, runMaxRounds, runTextLimit)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", render(titleStyle, "run"), runID)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		fmt.Println(render(faintStyle, "stopping... (interrupt again to exit immediately)"))
		if err := app.scheduler.StopDebate(); err != nil {
			app.logger.Warn("stop on interrupt failed", "error", err)
		}
		<-sigCh
		os.Exit(130)
	}()

	<-app.scheduler.Done()

	final := app.scheduler.GetState()
	fmt.Printf("\n%s %s (%s)\n", render(titleStyle, "finished:"), final.Debate.Status, final.Debate.Reason)

	switch final.Debate.Reason {
	case "consensus detected", "max rounds reached", "manual stop":
		return nil
	default:
		return fmt.Errorf("run failed: %s", final.Debate.Reason)
	}
}
