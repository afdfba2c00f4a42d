package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/dbx"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// StreakRepo persists the singleton streak counter row.
type StreakRepo struct {
	db  *sql.DB
	now func() time.Time
}

const streakColumns = `owner_id, current_streak, longest_streak, last_activity_date,
synced, sync_action, last_modified`

func scanStreak(row interface{ Scan(...any) error }) (*models.StreakCounter, error) {
	s := &models.StreakCounter{}
	var (
		lastActivity, lastModified int64
		synced                     int
		action                     string
	)
	err := row.Scan(&s.OwnerID, &s.CurrentStreak, &s.LongestStreak, &lastActivity,
		&synced, &action, &lastModified)
	if err != nil {
		return nil, err
	}
	s.LastActivityDate = fromMillis(lastActivity)
	s.Synced = synced != 0
	s.SyncAction = models.SyncAction(action)
	s.LastModified = fromMillis(lastModified)
	return s, nil
}

// Get returns the streak row for ownerID, or syncerr.ErrNotFound.
func (r *StreakRepo) Get(ctx context.Context, ownerID string) (*models.StreakCounter, error) {
	q := `SELECT ` + streakColumns + ` FROM streaks WHERE owner_id = ?`
	s, err := scanStreak(r.db.QueryRowContext(ctx, q, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncerr.ErrNotFound
		}
		return nil, fmt.Errorf("select streak: %w", err)
	}
	return s, nil
}

// Save writes s with update-else-insert semantics and marks the row dirty.
func (r *StreakRepo) Save(ctx context.Context, s *models.StreakCounter) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE streaks SET current_streak = ?, longest_streak = ?, last_activity_date = ?,
  synced = 0, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			s.CurrentStreak, s.LongestStreak, millis(s.LastActivityDate),
			string(models.ActionUpdate), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("update streak: %w", err)
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
INSERT INTO streaks (`+streakColumns+`)
VALUES (?, ?, ?, ?, 0, ?, ?)`,
			s.OwnerID, s.CurrentStreak, s.LongestStreak, millis(s.LastActivityDate),
			string(models.ActionCreate), now)
		if err != nil {
			return fmt.Errorf("insert streak: %w", err)
		}
		s.Synced = false
		s.SyncAction = models.ActionCreate
		s.LastModified = fromMillis(now)
		return nil
	})
}

func (r *StreakRepo) MarkDirty(ctx context.Context, ownerID string, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE streaks SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(action), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark streak dirty: %w", err)
	}
	return nil
}

// MarkSynced marks the row clean. Idempotent.
func (r *StreakRepo) MarkSynced(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE streaks SET synced = 1, sync_action = ? WHERE owner_id = ?`,
		string(models.ActionNone), ownerID)
	if err != nil {
		return fmt.Errorf("mark streak synced: %w", err)
	}
	return nil
}

func (r *StreakRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	return r.MarkDirty(ctx, ownerID, models.ActionUpdate)
}

func (r *StreakRepo) GetUnsynced(ctx context.Context) ([]*models.StreakCounter, error) {
	q := `SELECT ` + streakColumns + ` FROM streaks WHERE synced = 0 ORDER BY owner_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced streaks: %w", err)
	}
	defer rows.Close()

	var out []*models.StreakCounter
	for rows.Next() {
		s, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertFromRemote writes remote truth into the local row, marked clean.
func (r *StreakRepo) UpsertFromRemote(ctx context.Context, s *models.StreakCounter) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE streaks SET current_streak = ?, longest_streak = ?, last_activity_date = ?,
  synced = 1, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			s.CurrentStreak, s.LongestStreak, millis(s.LastActivityDate),
			string(models.ActionNone), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("upsert streak from remote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO streaks (`+streakColumns+`)
VALUES (?, ?, ?, ?, 1, ?, ?)`,
			s.OwnerID, s.CurrentStreak, s.LongestStreak, millis(s.LastActivityDate),
			string(models.ActionNone), now)
		if err != nil {
			return fmt.Errorf("upsert streak from remote: %w", err)
		}
		return nil
	})
}
