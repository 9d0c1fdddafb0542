package ports

import (
	"context"
	"time"

	"snapname/internal/domain"
)

// HistoryRecord is one rename or copy the tool performed
type HistoryRecord struct {
	ID           string
	RunID        string
	OriginalPath string
	FinalPath    string
	Mode         domain.BatchMode
	Provider     domain.ProviderKind
	Model        string
	IsFallback   bool
	Elapsed      time.Duration
	CreatedAt    time.Time
}

// HistoryStore persists processing history
type HistoryStore interface {
	// Record stores a completed rename or copy
	Record(ctx context.Context, rec HistoryRecord) error

	// Recent returns the latest records, newest first
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)

	// WasProduced reports whether path is the output of a recorded rename/copy
	// that got a descriptive name; fallback outputs are not counted
	WasProduced(ctx context.Context, path string) (bool, error)

	Close() error
}
