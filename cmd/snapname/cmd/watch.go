package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snapname/internal/adapters/watcher"
	"snapname/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and rename new images",
	Long: `Watch a directory and rename every new image after what it shows.

The backend is checked once at startup: bad credentials or a missing model
stop the command, an unreachable backend only logs a warning. Send SIGHUP
to reload the config file without restarting.

Examples:
  snapname watch
  snapname watch ~/Pictures/Screenshots --provider gemini`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := snapshot
		if len(args) == 1 {
			snap.WatchDir = config.ExpandPath(args[0])
		}

		rt, err := newRuntime(snap, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := checkBackend(ctx, snap); err != nil {
			return err
		}

		detector := watcher.New(rt.Handler, watcher.Options{Logger: log})
		if err := detector.Start(ctx, snap); err != nil {
			return err
		}

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		pinned := ""
		if len(args) == 1 {
			pinned = snap.WatchDir
		}
		return serveReloads(ctx, detector, hup, pinned)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
