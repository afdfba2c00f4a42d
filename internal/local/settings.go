package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/dbx"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// SettingsRepo persists the singleton opaque settings document.
type SettingsRepo struct {
	db  *sql.DB
	now func() time.Time
}

const settingsColumns = `owner_id, data, synced, sync_action, last_modified`

func scanSettings(row interface{ Scan(...any) error }) (*models.SettingsBlob, error) {
	s := &models.SettingsBlob{}
	var (
		data         string
		lastModified int64
		synced       int
		action       string
	)
	if err := row.Scan(&s.OwnerID, &data, &synced, &action, &lastModified); err != nil {
		return nil, err
	}
	s.Data = json.RawMessage(data)
	s.Synced = synced != 0
	s.SyncAction = models.SyncAction(action)
	s.LastModified = fromMillis(lastModified)
	return s, nil
}

// Get returns the settings document for ownerID, or syncerr.ErrNotFound.
func (r *SettingsRepo) Get(ctx context.Context, ownerID string) (*models.SettingsBlob, error) {
	q := `SELECT ` + settingsColumns + ` FROM settings_blobs WHERE owner_id = ?`
	s, err := scanSettings(r.db.QueryRowContext(ctx, q, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncerr.ErrNotFound
		}
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return s, nil
}

// Save validates and writes the document, marking the row dirty. Malformed
// JSON is rejected so a broken row never reaches the push path.
func (r *SettingsRepo) Save(ctx context.Context, s *models.SettingsBlob) error {
	if len(s.Data) == 0 || !json.Valid(s.Data) {
		return fmt.Errorf("settings document: %w", syncerr.ErrValidation)
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE settings_blobs SET data = ?, synced = 0, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			string(s.Data), string(models.ActionUpdate), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			s.Synced = false
			s.SyncAction = models.ActionUpdate
			s.LastModified = fromMillis(now)
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO settings_blobs (`+settingsColumns+`)
VALUES (?, ?, 0, ?, ?)`,
			s.OwnerID, string(s.Data), string(models.ActionCreate), now)
		if err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}
		s.Synced = false
		s.SyncAction = models.ActionCreate
		s.LastModified = fromMillis(now)
		return nil
	})
}

// Merge folds a partial preference document (one device-local store) into the
// existing blob, key by top-level key, and marks the row dirty.
func (r *SettingsRepo) Merge(ctx context.Context, ownerID string, partial json.RawMessage) error {
	if len(partial) == 0 || !json.Valid(partial) {
		return fmt.Errorf("settings fragment: %w", syncerr.ErrValidation)
	}

	current, err := r.Get(ctx, ownerID)
	if errors.Is(err, syncerr.ErrNotFound) {
		return r.Save(ctx, &models.SettingsBlob{OwnerID: ownerID, Data: partial})
	}
	if err != nil {
		return err
	}

	var base, overlay map[string]json.RawMessage
	if err := json.Unmarshal(current.Data, &base); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return fmt.Errorf("decode settings fragment: %w", err)
	}
	if base == nil {
		base = map[string]json.RawMessage{}
	}
	for k, v := range overlay {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return err
	}
	return r.Save(ctx, &models.SettingsBlob{OwnerID: ownerID, Data: merged})
}

func (r *SettingsRepo) MarkDirty(ctx context.Context, ownerID string, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings_blobs SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(action), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark settings dirty: %w", err)
	}
	return nil
}

// MarkSynced marks the row clean. Idempotent.
func (r *SettingsRepo) MarkSynced(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings_blobs SET synced = 1, sync_action = ? WHERE owner_id = ?`,
		string(models.ActionNone), ownerID)
	if err != nil {
		return fmt.Errorf("mark settings synced: %w", err)
	}
	return nil
}

func (r *SettingsRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	return r.MarkDirty(ctx, ownerID, models.ActionUpdate)
}

func (r *SettingsRepo) GetUnsynced(ctx context.Context) ([]*models.SettingsBlob, error) {
	q := `SELECT ` + settingsColumns + ` FROM settings_blobs WHERE synced = 0 ORDER BY owner_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced settings: %w", err)
	}
	defer rows.Close()

	var out []*models.SettingsBlob
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertFromRemote writes remote truth into the local row, marked clean.
func (r *SettingsRepo) UpsertFromRemote(ctx context.Context, s *models.SettingsBlob) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE settings_blobs SET data = ?, synced = 1, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			string(s.Data), string(models.ActionNone), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("upsert settings from remote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO settings_blobs (`+settingsColumns+`)
VALUES (?, ?, 1, ?, ?)`,
			s.OwnerID, string(s.Data), string(models.ActionNone), now)
		if err != nil {
			return fmt.Errorf("upsert settings from remote: %w", err)
		}
		return nil
	})
}
