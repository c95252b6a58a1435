package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tmu/pkg/control"
	"tmu/pkg/ui"
)

var ctlTimeout time.Duration

// ctlCmd represents the ctl command
var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Send commands to a running 'tmu run'",
	Long: `Send commands to a running session over its local control endpoint.

The endpoint address is taken from control.listen_addr.`,
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.PersistentFlags().DurationVar(&ctlTimeout, "timeout", 5*time.Second, "how long to wait for the session")

	for _, c := range []struct {
		use   string
		short string
		msg   control.MessageType
		done  string
	}{
		{"start", "Start unfollowing everyone not on the allow-list", control.UnfollowAll, "Start requested"},
		{"start-not-following", "Start unfollowing accounts that do not follow back", control.UnfollowNotFollowing, "Start requested"},
		{"demo", "Start a demo run that clicks nothing", control.Demo, "Demo requested"},
		{"stop", "Stop the active run", control.Stop, "Stop requested"},
	} {
		ctlCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				sendControl(cmd, c.msg)
				ui.PrintSuccess(c.done)
			},
		})
	}

	ctlCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a run is in progress",
		Args:  cobra.NoArgs,
		Run:   runCtlStatus,
	})
}

func dialControl(cmd *cobra.Command) (*control.Client, context.Context, context.CancelFunc) {
	cfg := loadConfig(cmd, map[string]interface{}{})
	ctx, cancel := context.WithTimeout(context.Background(), ctlTimeout)

	client, err := control.Dial(ctx, control.URL(cfg.Control.ListenAddr))
	if err != nil {
		cancel()
		ui.PrintError("Could not reach a running session", err.Error())
		os.Exit(1)
	}
	return client, ctx, cancel
}

func sendControl(cmd *cobra.Command, t control.MessageType) {
	client, _, cancel := dialControl(cmd)
	defer cancel()
	defer client.Close()

	if err := client.Send(t); err != nil {
		ui.PrintError("Failed to send command", err.Error())
		os.Exit(1)
	}
}

func runCtlStatus(cmd *cobra.Command, args []string) {
	client, ctx, cancel := dialControl(cmd)
	defer cancel()
	defer client.Close()

	running, err := client.InProgress(ctx)
	if err != nil {
		ui.PrintError("Failed to query session", err.Error())
		os.Exit(1)
	}
	if running {
		ui.PrintInfo("Status", "running")
	} else {
		ui.PrintInfo("Status", "idle")
	}
}
