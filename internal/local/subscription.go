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

// SubscriptionRepo persists the singleton subscription status row.
type SubscriptionRepo struct {
	db  *sql.DB
	now func() time.Time
}

const subscriptionColumns = `owner_id, status, platform, expires_at,
synced, sync_action, last_modified`

func scanSubscription(row interface{ Scan(...any) error }) (*models.SubscriptionStatus, error) {
	s := &models.SubscriptionStatus{}
	var (
		expires      sql.NullInt64
		lastModified int64
		synced       int
		action       string
		status       string
	)
	if err := row.Scan(&s.OwnerID, &status, &s.Platform, &expires, &synced, &action, &lastModified); err != nil {
		return nil, err
	}
	s.Status = models.SubscriptionState(status)
	if expires.Valid {
		t := fromMillis(expires.Int64)
		s.ExpiresAt = &t
	}
	s.Synced = synced != 0
	s.SyncAction = models.SyncAction(action)
	s.LastModified = fromMillis(lastModified)
	return s, nil
}

func expiresMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return millis(*t)
}

// Get returns the subscription row for ownerID, or syncerr.ErrNotFound.
func (r *SubscriptionRepo) Get(ctx context.Context, ownerID string) (*models.SubscriptionStatus, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE owner_id = ?`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncerr.ErrNotFound
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return s, nil
}

// Save writes s with update-else-insert semantics and marks the row dirty.
// Unknown states are rejected before touching storage.
func (r *SubscriptionRepo) Save(ctx context.Context, s *models.SubscriptionStatus) error {
	if !s.Status.Valid() {
		return fmt.Errorf("subscription state %q: %w", s.Status, syncerr.ErrValidation)
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE subscriptions SET status = ?, platform = ?, expires_at = ?,
  synced = 0, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			string(s.Status), s.Platform, expiresMillis(s.ExpiresAt),
			string(models.ActionUpdate), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("update subscription: %w", err)
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
INSERT INTO subscriptions (`+subscriptionColumns+`)
VALUES (?, ?, ?, ?, 0, ?, ?)`,
			s.OwnerID, string(s.Status), s.Platform, expiresMillis(s.ExpiresAt),
			string(models.ActionCreate), now)
		if err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		s.Synced = false
		s.SyncAction = models.ActionCreate
		s.LastModified = fromMillis(now)
		return nil
	})
}

func (r *SubscriptionRepo) MarkDirty(ctx context.Context, ownerID string, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(action), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark subscription dirty: %w", err)
	}
	return nil
}

// MarkSynced marks the row clean. Idempotent.
func (r *SubscriptionRepo) MarkSynced(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET synced = 1, sync_action = ? WHERE owner_id = ?`,
		string(models.ActionNone), ownerID)
	if err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	return r.MarkDirty(ctx, ownerID, models.ActionUpdate)
}

func (r *SubscriptionRepo) GetUnsynced(ctx context.Context) ([]*models.SubscriptionStatus, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE synced = 0 ORDER BY owner_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.SubscriptionStatus
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertFromRemote writes remote truth into the local row, marked clean.
// Subscription status is remote-authoritative, so this overwrites.
func (r *SubscriptionRepo) UpsertFromRemote(ctx context.Context, s *models.SubscriptionStatus) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE subscriptions SET status = ?, platform = ?, expires_at = ?,
  synced = 1, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			string(s.Status), s.Platform, expiresMillis(s.ExpiresAt),
			string(models.ActionNone), now, s.OwnerID)
		if err != nil {
			return fmt.Errorf("upsert subscription from remote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO subscriptions (`+subscriptionColumns+`)
VALUES (?, ?, ?, ?, 1, ?, ?)`,
			s.OwnerID, string(s.Status), s.Platform, expiresMillis(s.ExpiresAt),
			string(models.ActionNone), now)
		if err != nil {
			return fmt.Errorf("upsert subscription from remote: %w", err)
		}
		return nil
	})
}
