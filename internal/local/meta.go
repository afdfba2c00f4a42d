package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Keys stored in the sync_meta table.
const (
	// MetaPendingSync is set while a pass finished with transient failures.
	// Its presence makes the next opportunity retry even if no row is dirty
	// in memory.
	MetaPendingSync = "pending_sync"

	// MetaLastSyncAt records the wall-clock time of the last fully
	// successful pass, for diagnostics.
	MetaLastSyncAt = "last_sync_at"

	// MetaRestoredOwner marks which identity the last completed restore pass
	// ran for, so a re-login by the same user does not re-restore.
	MetaRestoredOwner = "restored_owner"
)

// MetaRepo is a small durable key-value table for sync bookkeeping that must
// survive process death.
type MetaRepo struct {
	db *sql.DB
}

// Get returns the value for key, or "" with found=false.
func (r *MetaRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select sync meta: %w", err)
	}
	return v, true, nil
}

// Set stores key=value, replacing any previous value.
func (r *MetaRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sync_meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set sync meta: %w", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *MetaRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_meta WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete sync meta: %w", err)
	}
	return nil
}
