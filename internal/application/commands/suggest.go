package commands

import (
	"context"
	"path/filepath"

	"snapname/internal/application"
	"snapname/internal/domain"
)

// SuggestCommand proposes a name for one image without renaming it
type SuggestCommand struct {
	pipeline *Pipeline
	Path     string
	// Force ignores the already-processed check and history
	Force bool
}

// NewSuggestCommand creates a new SuggestCommand
func NewSuggestCommand(p *Pipeline, path string) *SuggestCommand {
	return &SuggestCommand{pipeline: p, Path: path}
}

// Execute analyzes the image and resolves the name it would get now
func (c *SuggestCommand) Execute(ctx context.Context) (domain.ChangeEntry, error) {
	if err := application.ValidateImagePath("path", c.Path); err != nil {
		return domain.ChangeEntry{}, err
	}
	batch := &BatchCommand{pipeline: c.pipeline, Dir: filepath.Dir(c.Path)}
	return batch.planFile(ctx, c.Path, PlanOptions{Reprocess: c.Force}, map[string]bool{}), nil
}
