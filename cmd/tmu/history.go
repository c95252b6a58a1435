package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tmu/pkg/history"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent unfollow actions",
	Long: `Show the most recent entries of the action journal, oldest first.

Every account acted on is recorded with its outcome: unfollowed,
demo_skipped, confirm_missing or failed.`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) {
	dataDir, err := state.DataDir()
	if err != nil {
		ui.PrintError("Failed to locate data directory", err.Error())
		os.Exit(1)
	}
	journal, err := history.NewJournal(dataDir)
	if err != nil {
		ui.PrintError("Failed to open history", err.Error())
		os.Exit(1)
	}

	entries, err := journal.List(historyLimit)
	if err != nil {
		ui.PrintError("Failed to read history", err.Error())
		os.Exit(1)
	}
	if len(entries) == 0 {
		ui.PrintInfo("No history yet", journal.Path())
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %-16s @%s  %s\n",
			ui.Dim(e.Time.Local().Format("2006-01-02 15:04:05")),
			outcomeLabel(e.Outcome),
			e.Username,
			ui.Dim(shortRunID(e.RunID)),
		)
	}
}

func outcomeLabel(o history.Outcome) string {
	label := fmt.Sprintf("%-16s", o)
	switch o {
	case history.OutcomeUnfollowed:
		return ui.Green(label)
	case history.OutcomeDemoSkipped:
		return ui.Magenta(label)
	case history.OutcomeConfirmMissing:
		return ui.Yellow(label)
	}
	return ui.Red(label)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
