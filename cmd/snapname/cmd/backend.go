package cmd

import (
	"context"
	"fmt"
	"os"

	"snapname/internal/adapters/vision"
	"snapname/internal/application/commands"
	"snapname/internal/config"
)

// checkBackend runs the startup connection test. Only permanent failures are fatal.
func checkBackend(ctx context.Context, snap *config.Snapshot) error {
	analyzer, err := vision.FromSnapshot(snap, log)
	if err != nil {
		return err
	}
	res := commands.NewTestConnectionCommand(analyzer).Execute(ctx)
	switch {
	case res.Success:
		log.Info("backend reachable", "provider", res.Provider, "local", res.Provider.IsLocal(), "elapsed_ms", res.Elapsed.Milliseconds())
	case res.Permanent:
		return fmt.Errorf("%s backend unusable: %w", res.Provider, res.Err)
	default:
		log.Warn("backend not reachable yet, files will get fallback names until it is",
			"provider", res.Provider, "error", res.Err)
	}
	return nil
}

// reloader is the part of the watcher a SIGHUP touches
type reloader interface {
	ReloadConfig(snap *config.Snapshot) error
	Stop()
}

// serveReloads reloads the config on every hup until ctx ends.
// A non-empty pinnedDir (from the command line) survives reloads.
func serveReloads(ctx context.Context, d reloader, hup <-chan os.Signal, pinnedDir string) error {
	for {
		select {
		case <-hup:
			next, err := loadSnapshot()
			if err != nil {
				log.Error("config reload rejected", "error", err)
				continue
			}
			if pinnedDir != "" {
				next.WatchDir = pinnedDir
			}
			_ = d.ReloadConfig(next)
		case <-ctx.Done():
			log.Info("stopping watcher")
			d.Stop()
			return nil
		}
	}
}
