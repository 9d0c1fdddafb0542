package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"snapname/internal/adapters/clipboard"
	"snapname/internal/application"
	"snapname/internal/config"
)

var clipCmd = &cobra.Command{
	Use:   "clip <file>",
	Short: "Put an image on the clipboard",
	Long: `Run only the clipboard chain for one image: the native helper, then
file-manager automation, then the raw pasteboard command.

Examples:
  snapname clip ~/Desktop/login_screen.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(config.ExpandPath(args[0]))
		if err != nil {
			return err
		}
		if err := application.ValidateImagePath("file", path); err != nil {
			return err
		}

		publisher := clipboard.NewPublisher(
			clipboard.DefaultStrategies(snapshot.Clipboard.HelperPath),
			snapshot.Clipboard.Timeout,
			log,
		)
		attempts, err := publisher.Publish(context.Background(), path)
		for _, a := range attempts {
			status := "failed"
			if a.Success {
				status = "ok"
			}
			fmt.Printf("%-14s %-6s %dms\n", a.Strategy, status, a.Elapsed.Milliseconds())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(clipCmd)
}
