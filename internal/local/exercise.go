package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

// ExerciseRepo persists workout entries. Append-only, same shape of
// operations as food logs.
type ExerciseRepo struct {
	db  *sql.DB
	now func() time.Time
}

const exerciseColumns = `id, owner_id, exercise_name, calories_burned,
duration_min, notes, performed_at, synced, sync_action, last_modified`

func scanExercise(row interface{ Scan(...any) error }) (*models.ExerciseEntry, error) {
	e := &models.ExerciseEntry{}
	var (
		performedAt, lastModified int64
		synced                    int
		action                    string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.ExerciseName, &e.CaloriesBurned,
		&e.DurationMin, &e.Notes, &performedAt, &synced, &action, &lastModified)
	if err != nil {
		return nil, err
	}
	e.PerformedAt = fromMillis(performedAt)
	e.Synced = synced != 0
	e.SyncAction = models.SyncAction(action)
	e.LastModified = fromMillis(lastModified)
	return e, nil
}

func (r *ExerciseRepo) Insert(ctx context.Context, e *models.ExerciseEntry) (int64, error) {
	now := millis(r.now())
	res, err := r.db.ExecContext(ctx, `
INSERT INTO exercise_entries (owner_id, exercise_name, calories_burned,
  duration_min, notes, performed_at, synced, sync_action, last_modified)
VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		e.OwnerID, e.ExerciseName, e.CaloriesBurned, e.DurationMin, e.Notes,
		millis(e.PerformedAt), string(models.ActionCreate), now)
	if err != nil {
		return 0, fmt.Errorf("insert exercise entry: %w", err)
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

func (r *ExerciseRepo) MarkDirty(ctx context.Context, id int64, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE exercise_entries SET synced = 0, sync_action = ?, last_modified = ? WHERE id = ?`,
		string(action), millis(r.now()), id)
	if err != nil {
		return fmt.Errorf("mark exercise entry dirty: %w", err)
	}
	return nil
}

// MarkSynced marks a row clean. Idempotent.
func (r *ExerciseRepo) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE exercise_entries SET synced = 1, sync_action = ? WHERE id = ?`,
		string(models.ActionNone), id)
	if err != nil {
		return fmt.Errorf("mark exercise entry synced: %w", err)
	}
	return nil
}

func (r *ExerciseRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE exercise_entries SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(models.ActionUpdate), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark exercise entries dirty: %w", err)
	}
	return nil
}

func (r *ExerciseRepo) GetUnsynced(ctx context.Context) ([]*models.ExerciseEntry, error) {
	q := `SELECT ` + exerciseColumns + ` FROM exercise_entries WHERE synced = 0 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced exercise entries: %w", err)
	}
	defer rows.Close()

	var out []*models.ExerciseEntry
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ExerciseRepo) InsertFromRemote(ctx context.Context, e *models.ExerciseEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO exercise_entries (owner_id, exercise_name, calories_burned,
  duration_min, notes, performed_at, synced, sync_action, last_modified)
VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.OwnerID, e.ExerciseName, e.CaloriesBurned, e.DurationMin, e.Notes,
		millis(e.PerformedAt), string(models.ActionNone), millis(r.now()))
	if err != nil {
		return fmt.Errorf("insert exercise entry from remote: %w", err)
	}
	return nil
}

// ExistsNatural reports whether a workout with the dedup key
// (owner, performed_at rounded to the minute, name) is already present.
func (r *ExerciseRepo) ExistsNatural(ctx context.Context, ownerID string, performedAt time.Time, name string) (bool, error) {
	minute := performedAt.Truncate(time.Minute)
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM exercise_entries
WHERE owner_id = ? AND exercise_name = ? AND performed_at >= ? AND performed_at < ?`,
		ownerID, name, millis(minute), millis(minute.Add(time.Minute))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exercise entry dedup lookup: %w", err)
	}
	return n > 0, nil
}
