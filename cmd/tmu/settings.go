package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tmu/pkg/ui"
)

var (
	autoStop     bool
	reloadOnStop bool
	resetYes     bool
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the self-reload timer settings",
	Long: `Show or change the persisted timer settings.

--auto-stop arms a timer on every start. When it fires the run is stopped,
or, with --reload-on-stop, the page is reloaded and the run resumes.`,
	Example: `  # Reload the page every timer period and keep going
  tmu settings --auto-stop --reload-on-stop

  # Turn the timer off
  tmu settings --auto-stop=false`,
	Args: cobra.NoArgs,
	Run:  runSettings,
}

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted session state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted session state",
	Args:  cobra.NoArgs,
	Run:   runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the run status, options and total",
	Long: `Clear the persisted run status, options and unfollow total.

The allow-list and timer settings are kept. A run that was still RUNNING
will not be resumed afterwards.`,
	Args: cobra.NoArgs,
	Run:  runStateReset,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().BoolVar(&autoStop, "auto-stop", false, "arm the self-reload timer on start")
	settingsCmd.Flags().BoolVar(&reloadOnStop, "reload-on-stop", false, "reload and resume when the timer fires")

	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
}

func runSettings(cmd *cobra.Command, args []string) {
	session := openSession()

	if cmd.Flags().Changed("auto-stop") {
		if err := session.SetTimerEnabled(autoStop); err != nil {
			ui.PrintError("Failed to save setting", err.Error())
			os.Exit(1)
		}
	}
	if cmd.Flags().Changed("reload-on-stop") {
		if err := session.SetReloadOnStop(reloadOnStop); err != nil {
			ui.PrintError("Failed to save setting", err.Error())
			os.Exit(1)
		}
	}

	ui.PrintHighlight("Settings")
	fmt.Printf("  Auto-stop timer: %s\n", onOff(session.TimerEnabled()))
	fmt.Printf("  Reload on stop:  %s\n", onOff(session.ReloadOnStop()))
}

func runStateShow(cmd *cobra.Command, args []string) {
	snap := openSession().Snapshot()

	ui.PrintHighlight("Session State")
	fmt.Printf("  Status: %s\n", statusLabel(snap.Status))
	fmt.Printf("  Only not following back: %t\n", snap.Options.UnfollowNotFollowingOnly)
	fmt.Printf("  Demo: %t\n", snap.Options.IsDemo)
	fmt.Printf("  Total Unfollowed: %d\n", snap.Stats.TotalUnfollowed)
	fmt.Printf("  Allow-list: %d accounts\n", len(snap.AllowList))
	fmt.Printf("  Auto-stop timer: %s\n", onOff(snap.TimerEnabled))
	fmt.Printf("  Reload on stop: %s\n", onOff(snap.ReloadOnStop))
}

func runStateReset(cmd *cobra.Command, args []string) {
	if !resetYes {
		fmt.Print("Reset run status and total? (y/N): ")
		var input string
		fmt.Scanln(&input)
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	if err := openSession().Reset(); err != nil {
		ui.PrintError("Failed to reset state", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Session state reset")
}
