package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/coreline-ai/talk-codex-gemini/internal/transcript"
	"github.com/coreline-ai/talk-codex-gemini/internal/util"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted debate runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run's summary and full transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsWatchCmd = &cobra.Command{
	Use:   "watch <run-id>",
	Short: "Follow a run's transcript as new turns are appended",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsWatch,
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsWatchCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	summaries, err := app.store.ListRuns()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("no runs")
		return nil
	}

	for _, summary := range summaries {
		line := fmt.Sprintf("%s  %-9s  round %d  %s",
			summary.RunID, summary.Status, summary.Round,
			util.TruncateString(summary.Topic, 60))
		if summary.Reason != "" {
			line += "  (" + summary.Reason + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	summary, entries, err := app.store.ReadRun(args[0])
	if err != nil {
		return err
	}

	printSummary(summary)
	for _, entry := range entries {
		printEntry(entry)
	}
	return nil
}

func runRunsWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	runID := args[0]
	summary, entries, err := app.store.ReadRun(runID)
	if err != nil {
		return err
	}

	printSummary(summary)
	for _, entry := range entries {
		printEntry(entry)
	}
	printed := len(entries)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(app.store.EntryLogPath(runID)); err != nil {
		return fmt.Errorf("failed to watch transcript: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			summary, entries, err = app.store.ReadRun(runID)
			if err != nil {
				return err
			}
			for _, entry := range entries[printed:] {
				printEntry(entry)
			}
			printed = len(entries)
			if summary.Status == transcript.StatusStopped || summary.Status == transcript.StatusCompleted {
				fmt.Printf("\n%s %s (%s)\n", render(titleStyle, "finished:"), summary.Status, summary.Reason)
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func printSummary(summary *transcript.Summary) {
	fmt.Printf("%s %s\n", render(titleStyle, summary.RunID), summary.Topic)
	fmt.Printf("  status: %s", summary.Status)
	if summary.Reason != "" {
		fmt.Printf(" (%s)", summary.Reason)
	}
	fmt.Printf("  round: %d/%d  created: %s\n\n",
		summary.Round, summary.MaxRounds,
		summary.CreatedAt.Format(time.RFC3339))
}

func printEntry(entry transcript.Entry) {
	header := fmt.Sprintf("[round %d] %s -> %s  %s",
		entry.Round, entry.From, entry.To, entry.Timestamp.Format("15:04:05"))
	fmt.Printf("%s\n%s\n\n", render(agentStyle(entry.From), header), entry.Response)
}
