package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// withTx runs fn inside a transaction, rolling back when fn fails
func (h *History) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Prune deletes records created before cutoff and stamps the prune time.
// Returns the number of deleted records.
func (h *History) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM renames WHERE created_at < ?`, cutoff.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO meta (key, value) VALUES ('last_pruned', ?)
		`, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to update metadata: %w", err)
		}
		return nil
	})
	return deleted, err
}

// LastPruned returns when Prune last ran, or the zero time
func (h *History) LastPruned(ctx context.Context) (time.Time, error) {
	var value string
	err := h.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_pruned'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return time.Parse(time.RFC3339, value)
}
