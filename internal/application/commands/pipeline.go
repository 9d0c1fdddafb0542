package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"snapname/internal/domain"
	"snapname/internal/ports"
	"snapname/internal/telemetry"
)

// Pipeline holds the collaborators shared by the process and batch commands.
// Clipboard and History are optional.
type Pipeline struct {
	Analyzer  ports.Analyzer
	Images    ports.ImageRepository
	Clipboard ports.ClipboardPublisher
	History   ports.HistoryStore
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
	// Model is recorded in history next to the provider
	Model string
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// analyze runs the analyzer and logs its outcome
func (p *Pipeline) analyze(ctx context.Context, path string) domain.AnalysisResult {
	log := p.logger()
	provider := p.Analyzer.Kind().String()

	log.Info("analysis started", "path", path, "provider", provider)
	res := p.Analyzer.Analyze(ctx, path)
	p.Metrics.RecordAnalysis(ctx, provider, res.Elapsed, res.Success)

	if res.Success {
		log.Info("analysis succeeded",
			"path", path,
			"provider", provider,
			"text", res.Text,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
	} else {
		p.Metrics.RecordError(ctx, "analyze")
		log.Warn("analysis failed",
			"path", path,
			"provider", provider,
			"error", res.Err,
			"fallback", res.Text,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
	}
	return res
}

// synthesize turns an analysis into a candidate for the file at path
func synthesize(res domain.AnalysisResult, path string) domain.CandidateName {
	cand := domain.SynthesizeName(res.Text, filepath.Base(path))
	if !res.Success {
		cand.IsFallback = true
	}
	return cand
}

// candidateFromName rebuilds a candidate from a planned file name
func candidateFromName(name string, fallback bool) domain.CandidateName {
	stem, ext := domain.SplitName(name)
	return domain.CandidateName{Stem: stem, Ext: ext, IsFallback: fallback}
}

// publish puts path on the clipboard when a publisher is configured.
// Failure is logged, never returned.
func (p *Pipeline) publish(ctx context.Context, path string) []domain.ClipboardAttempt {
	if p.Clipboard == nil {
		return nil
	}
	log := p.logger()

	attempts, err := p.Clipboard.Publish(ctx, path)
	for _, a := range attempts {
		p.Metrics.RecordClipboard(ctx, a.Strategy, a.Success)
	}
	if err != nil {
		p.Metrics.RecordError(ctx, "clipboard")
		log.Warn("clipboard failed", "path", path, "attempts", len(attempts), "error", err)
		return attempts
	}

	last := attempts[len(attempts)-1]
	log.Info("clipboard published", "path", path, "strategy", last.Strategy)
	return attempts
}

// record writes a history row. Failure is logged, never returned.
func (p *Pipeline) record(ctx context.Context, runID, original, final string, mode domain.BatchMode, fallback bool, elapsed time.Duration) {
	if p.History == nil {
		return
	}
	var provider domain.ProviderKind
	if p.Analyzer != nil {
		provider = p.Analyzer.Kind()
	}
	err := p.History.Record(ctx, ports.HistoryRecord{
		RunID:        runID,
		OriginalPath: original,
		FinalPath:    final,
		Mode:         mode,
		Provider:     provider,
		Model:        p.Model,
		IsFallback:   fallback,
		Elapsed:      elapsed,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		p.logger().Warn("history record failed", "path", final, "error", err)
	}
}

// wasProduced reports whether history says this tool produced path
func (p *Pipeline) wasProduced(ctx context.Context, path string) bool {
	if p.History == nil {
		return false
	}
	ok, err := p.History.WasProduced(ctx, path)
	if err != nil {
		p.logger().Warn("history lookup failed", "path", path, "error", err)
		return false
	}
	return ok
}
