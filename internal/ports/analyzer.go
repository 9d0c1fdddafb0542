package ports

import (
	"context"

	"snapname/internal/domain"
)

// Instruction is the fixed prompt sent with every image
const Instruction = "Look at this image and respond with a short descriptive filename stem " +
	"in lowercase underscore_separated words, with no file extension, under 50 characters, " +
	"and no other text."

// Analyzer defines the interface for vision backends that describe an image
type Analyzer interface {
	// Kind identifies the backend
	Kind() domain.ProviderKind

	// Analyze describes the image at imagePath. It never fails: on any backend
	// error the result carries a fallback name, Success=false and the cause in Err.
	Analyze(ctx context.Context, imagePath string) domain.AnalysisResult

	// TestConnection issues a minimal request to validate reachability and credentials
	TestConnection(ctx context.Context) error
}

// ModelManager is implemented by backends that can list and fetch models.
// Used during setup only, never on the processing path.
type ModelManager interface {
	// ListModels returns the names of models available to the backend
	ListModels(ctx context.Context) ([]string, error)

	// EnsureModel makes the model resident, pulling it if absent
	EnsureModel(ctx context.Context, model string) error
}
