package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

// WeightRepo persists weigh-ins. Append-only.
type WeightRepo struct {
	db  *sql.DB
	now func() time.Time
}

const weightColumns = `id, owner_id, weight_kg, recorded_at, synced, sync_action, last_modified`

func scanWeight(row interface{ Scan(...any) error }) (*models.WeightEntry, error) {
	e := &models.WeightEntry{}
	var (
		recordedAt, lastModified int64
		synced                   int
		action                   string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.WeightKg, &recordedAt, &synced, &action, &lastModified); err != nil {
		return nil, err
	}
	e.RecordedAt = fromMillis(recordedAt)
	e.Synced = synced != 0
	e.SyncAction = models.SyncAction(action)
	e.LastModified = fromMillis(lastModified)
	return e, nil
}

// Insert appends a new dirty weigh-in and returns its local id.
func (r *WeightRepo) Insert(ctx context.Context, e *models.WeightEntry) (int64, error) {
	now := millis(r.now())
	res, err := r.db.ExecContext(ctx, `
INSERT INTO weight_entries (owner_id, weight_kg, recorded_at, synced, sync_action, last_modified)
VALUES (?, ?, ?, 0, ?, ?)`,
		e.OwnerID, e.WeightKg, millis(e.RecordedAt), string(models.ActionCreate), now)
	if err != nil {
		return 0, fmt.Errorf("insert weight entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	e.ID = id
	e.Synced = false
	e.SyncAction = models.ActionCreate
	e.LastModified = fromMillis(now)
	return id, nil
}

func (r *WeightRepo) MarkDirty(ctx context.Context, id int64, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE weight_entries SET synced = 0, sync_action = ?, last_modified = ? WHERE id = ?`,
		string(action), millis(r.now()), id)
	if err != nil {
		return fmt.Errorf("mark weight entry dirty: %w", err)
	}
	return nil
}

// MarkSynced marks a row clean. Idempotent.
func (r *WeightRepo) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE weight_entries SET synced = 1, sync_action = ? WHERE id = ?`,
		string(models.ActionNone), id)
	if err != nil {
		return fmt.Errorf("mark weight entry synced: %w", err)
	}
	return nil
}

func (r *WeightRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE weight_entries SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(models.ActionUpdate), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark weight entries dirty: %w", err)
	}
	return nil
}

// GetUnsynced returns dirty rows in ascending local-id order.
func (r *WeightRepo) GetUnsynced(ctx context.Context) ([]*models.WeightEntry, error) {
	q := `SELECT ` + weightColumns + ` FROM weight_entries WHERE synced = 0 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced weight entries: %w", err)
	}
	defer rows.Close()

	var out []*models.WeightEntry
	for rows.Next() {
		e, err := scanWeight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertFromRemote appends a pulled row already marked clean.
func (r *WeightRepo) InsertFromRemote(ctx context.Context, e *models.WeightEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO weight_entries (owner_id, weight_kg, recorded_at, synced, sync_action, last_modified)
VALUES (?, ?, ?, 1, ?, ?)`,
		e.OwnerID, e.WeightKg, millis(e.RecordedAt), string(models.ActionNone), millis(r.now()))
	if err != nil {
		return fmt.Errorf("insert weight entry from remote: %w", err)
	}
	return nil
}

// ExistsNatural reports whether a weigh-in with the dedup key
// (owner, recorded_at rounded to the minute) is already present.
func (r *WeightRepo) ExistsNatural(ctx context.Context, ownerID string, recordedAt time.Time) (bool, error) {
	minute := recordedAt.Truncate(time.Minute)
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM weight_entries
WHERE owner_id = ? AND recorded_at >= ? AND recorded_at < ?`,
		ownerID, millis(minute), millis(minute.Add(time.Minute))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("weight entry dedup lookup: %w", err)
	}
	return n > 0, nil
}
