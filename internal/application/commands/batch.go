package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"snapname/internal/application"
	"snapname/internal/domain"
)

// PlanOptions controls how a batch preview is built
type PlanOptions struct {
	// Mock uses deterministic generated names instead of the analyzer
	Mock bool
	// Reprocess ignores the already-processed check and history
	Reprocess bool
}

// ApplyOptions controls how a plan is applied
type ApplyOptions struct {
	Mode    domain.BatchMode
	DestDir string
	// Clipboard republishes each renamed file; rename mode only
	Clipboard bool
}

// BatchCommand previews and applies renames across one directory.
// Files are handled one at a time in lexicographic order.
type BatchCommand struct {
	pipeline *Pipeline
	Dir      string
}

// NewBatchCommand creates a new BatchCommand
func NewBatchCommand(p *Pipeline, dir string) *BatchCommand {
	return &BatchCommand{pipeline: p, Dir: dir}
}

// Validate checks the batch directory
func (c *BatchCommand) Validate() error {
	return application.ValidateDirectory("dir", c.Dir)
}

// Plan builds a preview report without touching the filesystem
func (c *BatchCommand) Plan(ctx context.Context, opts PlanOptions) (*domain.BatchReport, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.pipeline
	images, err := p.Images.ListImages(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	report := &domain.BatchReport{
		RunID:     application.NewID(),
		Dir:       c.Dir,
		Mode:      domain.ModePreview,
		Mock:      opts.Mock,
		StartedAt: time.Now(),
	}

	// names already promised to earlier entries in this plan
	reserved := map[string]bool{}

	for _, path := range images {
		report.Entries = append(report.Entries, c.planFile(ctx, path, opts, reserved))
	}

	report.FinishedAt = time.Now()
	report.Tally()
	c.logComplete(report)
	return report, nil
}

func (c *BatchCommand) planFile(ctx context.Context, path string, opts PlanOptions, reserved map[string]bool) domain.ChangeEntry {
	p := c.pipeline
	entry := domain.ChangeEntry{OriginalPath: path}

	size, err := p.Images.Size(path)
	if err != nil {
		entry.Status = domain.StatusError
		entry.Reason = err.Error()
		return entry
	}
	entry.Size = size

	if !opts.Reprocess {
		stem, _ := domain.SplitName(path)
		if domain.IsProcessed(stem) {
			entry.Status = domain.StatusSkip
			entry.Reason = "already processed"
			return entry
		}
		if !domain.IsFallbackStem(stem) && p.wasProduced(ctx, path) {
			entry.Status = domain.StatusSkip
			entry.Reason = "produced by an earlier run"
			return entry
		}
	}

	var cand domain.CandidateName
	if opts.Mock {
		cand = domain.SynthesizeName(domain.MockName(path), filepath.Base(path))
	} else {
		res := p.analyze(ctx, path)
		entry.Elapsed = res.Elapsed
		cand = synthesize(res, path)
	}
	entry.ProposedName = cand.FileName()
	entry.IsFallback = cand.IsFallback

	if cand.FileName() == filepath.Base(path) {
		entry.Status = domain.StatusNoChange
		entry.FinalName = entry.ProposedName
		return entry
	}

	final, err := p.Images.ResolveName(filepath.Dir(path), cand, reserved)
	if err != nil {
		entry.Status = domain.StatusError
		entry.Reason = err.Error()
		return entry
	}
	reserved[final] = true
	entry.FinalName = final
	entry.Status = domain.StatusRename
	return entry
}

// Apply performs a previously built plan. Each file is independent: one
// failure is recorded on its entry and the rest of the queue continues.
func (c *BatchCommand) Apply(ctx context.Context, plan *domain.BatchReport, opts ApplyOptions) (*domain.BatchReport, error) {
	if plan.Mock {
		return nil, application.ErrMockPlan
	}
	if err := application.ValidateApplyMode(opts.Mode, opts.DestDir); err != nil {
		return nil, err
	}

	report := &domain.BatchReport{
		RunID:     plan.RunID,
		Dir:       plan.Dir,
		Mode:      opts.Mode,
		Entries:   make([]domain.ChangeEntry, len(plan.Entries)),
		StartedAt: time.Now(),
	}
	copy(report.Entries, plan.Entries)

	for i := range report.Entries {
		c.applyEntry(ctx, &report.Entries[i], plan.RunID, opts)
	}

	report.FinishedAt = time.Now()
	report.Tally()
	c.logComplete(report)
	return report, nil
}

func (c *BatchCommand) applyEntry(ctx context.Context, entry *domain.ChangeEntry, runID string, opts ApplyOptions) {
	p := c.pipeline
	log := p.logger()

	switch {
	case entry.Status == domain.StatusRename:
	case entry.Status == domain.StatusNoChange && opts.Mode == domain.ModeCopy:
	default:
		return
	}

	if !p.Images.Exists(entry.OriginalPath) {
		entry.Status = domain.StatusError
		entry.Reason = "source no longer exists"
		p.Metrics.RecordError(ctx, "apply")
		return
	}

	cand := candidateFromName(entry.ProposedName, entry.IsFallback)

	var (
		final string
		err   error
	)
	if opts.Mode == domain.ModeCopy {
		final, err = p.Images.Copy(entry.OriginalPath, opts.DestDir, cand)
	} else {
		final, err = p.Images.Rename(entry.OriginalPath, cand)
	}
	if err != nil {
		entry.Status = domain.StatusError
		entry.Reason = err.Error()
		p.Metrics.RecordError(ctx, string(opts.Mode))
		log.Error(string(opts.Mode)+" failed", "path", entry.OriginalPath, "error", err)
		return
	}

	entry.AppliedPath = final
	entry.FinalName = filepath.Base(final)
	entry.Status = domain.StatusRename
	p.Metrics.RecordFile(ctx, string(opts.Mode))

	if opts.Mode == domain.ModeCopy {
		log.Info("copied", "path", entry.OriginalPath, "final_path", final)
	} else {
		log.Info("renamed", "path", entry.OriginalPath, "final_path", final, "fallback", entry.IsFallback)
		if opts.Clipboard {
			p.publish(ctx, final)
		}
	}
	p.record(ctx, runID, entry.OriginalPath, final, opts.Mode, entry.IsFallback, entry.Elapsed)
}

func (c *BatchCommand) logComplete(r *domain.BatchReport) {
	c.pipeline.logger().Info("batch complete",
		"dir", r.Dir,
		"mode", string(r.Mode),
		"mock", r.Mock,
		"total", r.TotalFiles,
		"processed", r.Processed,
		"skipped", r.Skipped,
		"errors", r.Errors,
		"avg_latency_ms", r.AverageLatency.Milliseconds(),
	)
}
