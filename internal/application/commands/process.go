package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/telemetry"
)

// ProcessResult contains the outcome of one file's pipeline run
type ProcessResult struct {
	OriginalPath string
	FinalPath    string
	Status       domain.ChangeStatus
	Reason       string
	Candidate    domain.CandidateName
	Analysis     domain.AnalysisResult
	Clipboard    []domain.ClipboardAttempt
	Elapsed      time.Duration
}

// ProcessCommand runs the full pipeline on one image:
// classify, analyze, synthesize, resolve, rename, publish, record.
type ProcessCommand struct {
	pipeline *Pipeline
	Path     string
	RunID    string
	// Force skips the already-processed check
	Force bool
}

// NewProcessCommand creates a new ProcessCommand
func NewProcessCommand(p *Pipeline, path string) *ProcessCommand {
	return &ProcessCommand{pipeline: p, Path: path}
}

// Validate checks the path names an existing supported image
func (c *ProcessCommand) Validate() error {
	return application.ValidateImagePath("path", c.Path)
}

// Execute runs the pipeline. Analyzer and clipboard failures degrade
// gracefully; only a failed rename is returned as an error.
func (c *ProcessCommand) Execute(ctx context.Context) (*ProcessResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.pipeline
	log := p.logger()
	start := time.Now()
	result := &ProcessResult{OriginalPath: c.Path, FinalPath: c.Path}

	stem, _ := domain.SplitName(c.Path)
	if !c.Force && domain.IsProcessed(stem) {
		result.Status = domain.StatusSkip
		result.Reason = "already processed"
		log.Debug("skipping processed file", "path", c.Path)
		return result, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "process_file",
		trace.WithAttributes(
			attribute.String("path", c.Path),
			attribute.String("provider", p.Analyzer.Kind().String()),
		))
	defer span.End()

	result.Analysis = p.analyze(ctx, c.Path)
	result.Candidate = synthesize(result.Analysis, c.Path)

	if result.Candidate.FileName() == filepath.Base(c.Path) {
		result.Status = domain.StatusNoChange
		result.Elapsed = time.Since(start)
		return result, nil
	}

	final, err := p.Images.Rename(c.Path, result.Candidate)
	if err != nil {
		p.Metrics.RecordError(ctx, "rename")
		span.RecordError(err)
		span.SetStatus(codes.Error, "rename failed")
		log.Error("rename failed", "path", c.Path, "candidate", result.Candidate.FileName(), "error", err)
		return nil, fmt.Errorf("failed to rename %s: %w", c.Path, err)
	}

	result.FinalPath = final
	result.Status = domain.StatusRename
	p.Metrics.RecordFile(ctx, string(domain.ModeRename))
	log.Info("renamed",
		"path", c.Path,
		"final_path", final,
		"fallback", result.Candidate.IsFallback,
	)
	span.SetAttributes(attribute.String("final_path", final))

	result.Clipboard = p.publish(ctx, final)
	result.Elapsed = time.Since(start)
	p.record(ctx, c.RunID, c.Path, final, domain.ModeRename, result.Candidate.IsFallback, result.Analysis.Elapsed)

	return result, nil
}
