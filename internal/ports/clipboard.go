package ports

import (
	"context"

	"snapname/internal/domain"
)

// ClipboardPublisher puts an image file onto the system clipboard
type ClipboardPublisher interface {
	// Publish tries each write strategy in priority order until one succeeds.
	// The attempts are returned even when all of them fail.
	Publish(ctx context.Context, filePath string) ([]domain.ClipboardAttempt, error)
}
