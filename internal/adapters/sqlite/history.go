package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// History implements ports.HistoryStore using SQLite
type History struct {
	db     *sql.DB
	dbPath string
}

var _ ports.HistoryStore = (*History)(nil)

// OpenHistory opens (creating if needed) the history database at dbPath
func OpenHistory(dbPath string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the pipeline is sequential anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS renames (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL DEFAULT '',
			original_path TEXT NOT NULL,
			final_path TEXT NOT NULL,
			mode TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			is_fallback INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_renames_final ON renames(final_path);
		CREATE INDEX IF NOT EXISTS idx_renames_created ON renames(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &History{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path
func (h *History) Path() string {
	return h.dbPath
}

// Record stores a completed rename or copy. Missing ID and timestamp are filled in.
func (h *History) Record(ctx context.Context, rec ports.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = application.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO renames (id, run_id, original_path, final_path, mode, provider, model, is_fallback, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.OriginalPath, rec.FinalPath, string(rec.Mode), rec.Provider.String(),
		rec.Model, rec.IsFallback, rec.Elapsed.Milliseconds(), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]ports.HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, run_id, original_path, final_path, mode, provider, model, is_fallback, elapsed_ms, created_at
		FROM renames
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []ports.HistoryRecord
	for rows.Next() {
		var (
			rec        ports.HistoryRecord
			mode       string
			provider   string
			elapsedMS  int64
			createdMS  int64
			isFallback bool
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.OriginalPath, &rec.FinalPath, &mode,
			&provider, &rec.Model, &isFallback, &elapsedMS, &createdMS); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		rec.Mode = domain.BatchMode(mode)
		rec.Provider = domain.ProviderKind(provider)
		rec.IsFallback = isFallback
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		rec.CreatedAt = time.UnixMilli(createdMS)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// WasProduced reports whether path is the output of a recorded rename or copy.
// Fallback outputs do not count: they still need a real name.
func (h *History) WasProduced(ctx context.Context, path string) (bool, error) {
	var n int
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM renames WHERE final_path = ? AND is_fallback = 0`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query history: %w", err)
	}
	return n > 0, nil
}

// Close closes the database connection
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}
