package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"snapname/internal/app"
	"snapname/internal/config"
	"snapname/internal/logger"
	"snapname/internal/telemetry"
)

// Version is set at build time with -ldflags
var Version = "dev"

var (
	configPath   string
	providerFlag string
	logLevel     string
	logFormat    string
	noClipboard  bool

	snapshot          *config.Snapshot
	log               *slog.Logger
	telemetryShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "snapname",
	Short: "Give screenshots and images descriptive names",
	Long: `snapname asks a vision model what an image shows and renames the file
after it, then puts the renamed file on the clipboard.

It can watch a directory continuously or process an existing one in a
single batch, with a preview before anything is renamed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		snap, err := loadSnapshot()
		if err != nil {
			return err
		}
		snapshot = snap
		log = logger.InitLogger(snap.LogLevel, snap.LogFormat, os.Stderr)

		shutdown, err := telemetry.Init(cmd.Context(), snap.Telemetry.Endpoint, Version)
		if err != nil {
			log.Warn("telemetry disabled", "error", err)
			return nil
		}
		telemetryShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown == nil {
			return nil
		}
		return telemetryShutdown(context.Background())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "path to the config file")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "vision backend: gemini, lmstudio or ollama")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noClipboard, "no-clipboard", false, "never publish to the clipboard")
}

// loadSnapshot reads the config file and applies command-line overrides
func loadSnapshot() (*config.Snapshot, error) {
	snap, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		snap.Provider = providerFlag
	}
	if logLevel != "" {
		snap.LogLevel = logLevel
	}
	if logFormat != "" {
		snap.LogFormat = logFormat
	}
	if noClipboard {
		snap.Clipboard.Enabled = false
	}
	return snap, nil
}

// newRuntime validates snap and opens the shared collaborators
func newRuntime(snap *config.Snapshot, requireWatchDir bool) (*app.Runtime, error) {
	if err := snap.Validate(requireWatchDir); err != nil {
		return nil, err
	}
	return app.NewRuntime(snap, log)
}
