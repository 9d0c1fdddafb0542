// Package app wires configuration snapshots to concrete adapters.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"snapname/internal/adapters/clipboard"
	"snapname/internal/adapters/filesystem"
	"snapname/internal/adapters/sqlite"
	"snapname/internal/adapters/vision"
	"snapname/internal/adapters/watcher"
	"snapname/internal/application"
	"snapname/internal/application/commands"
	"snapname/internal/config"
	"snapname/internal/telemetry"
)

// Runtime holds the process-wide collaborators that outlive a config reload
type Runtime struct {
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	History *sqlite.History
}

// NewRuntime opens the history ledger (when enabled) and builds metric instruments
func NewRuntime(snap *config.Snapshot, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Logger: logger}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	rt.Metrics = metrics

	if snap.History.Enabled && snap.History.Path != "" {
		h, err := sqlite.OpenHistory(snap.History.Path)
		if err != nil {
			return nil, err
		}
		rt.History = h
	}
	return rt, nil
}

// Close releases the history ledger
func (r *Runtime) Close() error {
	if r.History == nil {
		return nil
	}
	return r.History.Close()
}

// Pipeline builds the per-file pipeline for snap
func (r *Runtime) Pipeline(snap *config.Snapshot) (*commands.Pipeline, error) {
	analyzer, err := vision.FromSnapshot(snap, r.Logger)
	if err != nil {
		return nil, err
	}

	p := &commands.Pipeline{
		Analyzer: analyzer,
		Images:   filesystem.NewRepository(),
		Metrics:  r.Metrics,
		Logger:   r.Logger,
		Model:    vision.ModelName(snap),
	}
	if snap.Clipboard.Enabled {
		p.Clipboard = r.Publisher(snap)
	}
	if r.History != nil {
		p.History = r.History
	}
	return p, nil
}

// Publisher builds the clipboard chain for the current platform
func (r *Runtime) Publisher(snap *config.Snapshot) *clipboard.Publisher {
	return clipboard.NewPublisher(
		clipboard.DefaultStrategies(snap.Clipboard.HelperPath),
		snap.Clipboard.Timeout,
		r.Logger,
	)
}

// Handler is a watcher.SessionFactory: each snapshot gets its own pipeline,
// while history and metrics are shared.
func (r *Runtime) Handler(snap *config.Snapshot) (watcher.Handler, error) {
	p, err := r.Pipeline(snap)
	if err != nil {
		return nil, err
	}
	runID := application.NewID()

	return watcher.HandlerFunc(func(ctx context.Context, path string) (string, error) {
		cmd := commands.NewProcessCommand(p, path)
		cmd.RunID = runID
		res, err := cmd.Execute(ctx)
		if err != nil {
			return "", err
		}
		return res.FinalPath, nil
	}), nil
}
