package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tmu/pkg/logger"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

// allowlistCmd represents the allowlist command
var allowlistCmd = &cobra.Command{
	Use:     "allowlist",
	Aliases: []string{"whitelist"},
	Short:   "Manage accounts that are never unfollowed",
	Long: `Manage the allow-list. Accounts on it are skipped by every run.

Handles are matched case-insensitively and a leading "@" is ignored.`,
}

var allowAddCmd = &cobra.Command{
	Use:     "add <handle>...",
	Short:   "Add accounts to the allow-list",
	Example: `  tmu allowlist add @jack elonmusk`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session := openSession()
		list, err := session.AddAllowed(args...)
		if err != nil {
			ui.PrintError("Failed to update allow-list", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess(fmt.Sprintf("Allow-list now has %d accounts", len(list)))
	},
}

var allowRemoveCmd = &cobra.Command{
	Use:   "remove <handle>...",
	Short: "Remove accounts from the allow-list",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session := openSession()
		list, err := session.RemoveAllowed(args...)
		if err != nil {
			ui.PrintError("Failed to update allow-list", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess(fmt.Sprintf("Allow-list now has %d accounts", len(list)))
	},
}

var allowListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the allow-list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		list := openSession().AllowList()
		if len(list) == 0 {
			ui.PrintInfo("Allow-list is empty", "Use 'tmu allowlist add <handle>' to protect an account")
			return
		}
		ui.PrintHighlight(fmt.Sprintf("Allow-list (%d)", len(list)))
		for _, name := range list {
			fmt.Println("  @" + name)
		}
	},
}

var allowClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every account from the allow-list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := openSession().ClearAllowList(); err != nil {
			ui.PrintError("Failed to clear allow-list", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Allow-list cleared")
	},
}

func init() {
	rootCmd.AddCommand(allowlistCmd)
	allowlistCmd.AddCommand(allowAddCmd)
	allowlistCmd.AddCommand(allowRemoveCmd)
	allowlistCmd.AddCommand(allowListCmd)
	allowlistCmd.AddCommand(allowClearCmd)
}

// openSession opens the persisted session state. It exits the process on
// failure
func openSession() *state.Session {
	log := logger.GetLogger()
	path, err := state.DefaultPath()
	if err != nil {
		ui.PrintError("Failed to locate state file", err.Error())
		os.Exit(1)
	}
	store, err := state.OpenFileStore(path, log)
	if err != nil {
		ui.PrintError("Failed to open state file", err.Error())
		os.Exit(1)
	}
	return state.NewSession(store, log)
}

func onOff(v bool) string {
	if v {
		return ui.Green("on")
	}
	return ui.Dim("off")
}

func statusLabel(s state.Status) string {
	switch s {
	case state.StatusRunning:
		return ui.Green(string(s))
	case state.StatusStopped:
		return ui.Red(string(s))
	case state.StatusPaused:
		return ui.Yellow(string(s))
	}
	return strings.ToUpper(string(s))
}
