package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

// FoodLogRepo persists food log entries. Append-mostly: rows are created by
// user action or a restore pull, and edited rarely.
type FoodLogRepo struct {
	db  *sql.DB
	now func() time.Time
}

const foodLogColumns = `id, owner_id, meal_id, food_name, meal_type, calories,
proteins, carbs, fats, fiber, sugar, saturated_fat, cholesterol, sodium,
potassium, serving_weight, weight_unit, image_url, logged_at,
synced, sync_action, last_modified`

func scanFoodLog(row interface{ Scan(...any) error }) (*models.FoodLogEntry, error) {
	e := &models.FoodLogEntry{}
	var (
		serving      sql.NullFloat64
		loggedAt     int64
		synced       int
		action       string
		lastModified int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.MealID, &e.FoodName, &e.MealType, &e.Calories,
		&e.Proteins, &e.Carbs, &e.Fats, &e.Fiber, &e.Sugar, &e.SaturatedFat,
		&e.Cholesterol, &e.Sodium, &e.Potassium, &serving, &e.WeightUnit,
		&e.ImageURL, &loggedAt, &synced, &action, &lastModified)
	if err != nil {
		return nil, err
	}
	if serving.Valid {
		e.ServingWeight = &serving.Float64
	}
	e.LoggedAt = fromMillis(loggedAt)
	e.Synced = synced != 0
	e.SyncAction = models.SyncAction(action)
	e.LastModified = fromMillis(lastModified)
	return e, nil
}

// Insert appends a new dirty entry and returns its local id. An entry
// arriving without a meal id gets one minted here, so grouping survives the
// round-trip through the backend.
func (r *FoodLogRepo) Insert(ctx context.Context, e *models.FoodLogEntry) (int64, error) {
	if e.MealID == "" {
		e.MealID = uuid.NewString()
	}
	now := millis(r.now())
	res, err := r.db.ExecContext(ctx, `
INSERT INTO food_logs (owner_id, meal_id, food_name, meal_type, calories,
  proteins, carbs, fats, fiber, sugar, saturated_fat, cholesterol, sodium,
  potassium, serving_weight, weight_unit, image_url, logged_at,
  synced, sync_action, last_modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		e.OwnerID, e.MealID, e.FoodName, e.MealType, e.Calories,
		e.Proteins, e.Carbs, e.Fats, e.Fiber, e.Sugar, e.SaturatedFat,
		e.Cholesterol, e.Sodium, e.Potassium, e.ServingWeight, e.WeightUnit,
		e.ImageURL, millis(e.LoggedAt), string(models.ActionCreate), now)
	if err != nil {
		return 0, fmt.Errorf("insert food log: %w", err)
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

// MarkDirty flags a row for push after an edit.
func (r *FoodLogRepo) MarkDirty(ctx context.Context, id int64, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE food_logs SET synced = 0, sync_action = ?, last_modified = ? WHERE id = ?`,
		string(action), millis(r.now()), id)
	if err != nil {
		return fmt.Errorf("mark food log dirty: %w", err)
	}
	return nil
}

// MarkSynced marks a row clean. Idempotent.
func (r *FoodLogRepo) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE food_logs SET synced = 1, sync_action = ? WHERE id = ?`,
		string(models.ActionNone), id)
	if err != nil {
		return fmt.Errorf("mark food log synced: %w", err)
	}
	return nil
}

// MarkAllDirty flags every row of the owner for an initial-backup push.
func (r *FoodLogRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE food_logs SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(models.ActionUpdate), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark food logs dirty: %w", err)
	}
	return nil
}

// GetUnsynced returns dirty rows in ascending local-id order (push FIFO).
func (r *FoodLogRepo) GetUnsynced(ctx context.Context) ([]*models.FoodLogEntry, error) {
	q := `SELECT ` + foodLogColumns + ` FROM food_logs WHERE synced = 0 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced food logs: %w", err)
	}
	defer rows.Close()

	var out []*models.FoodLogEntry
	for rows.Next() {
		e, err := scanFoodLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertFromRemote appends a pulled row already marked clean.
func (r *FoodLogRepo) InsertFromRemote(ctx context.Context, e *models.FoodLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO food_logs (owner_id, meal_id, food_name, meal_type, calories,
  proteins, carbs, fats, fiber, sugar, saturated_fat, cholesterol, sodium,
  potassium, serving_weight, weight_unit, image_url, logged_at,
  synced, sync_action, last_modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.OwnerID, e.MealID, e.FoodName, e.MealType, e.Calories,
		e.Proteins, e.Carbs, e.Fats, e.Fiber, e.Sugar, e.SaturatedFat,
		e.Cholesterol, e.Sodium, e.Potassium, e.ServingWeight, e.WeightUnit,
		e.ImageURL, millis(e.LoggedAt), string(models.ActionNone), millis(r.now()))
	if err != nil {
		return fmt.Errorf("insert food log from remote: %w", err)
	}
	return nil
}

// ExistsNatural reports whether a row with the dedup key
// (owner, logged_at rounded to the minute, food_name) is already present.
func (r *FoodLogRepo) ExistsNatural(ctx context.Context, ownerID string, loggedAt time.Time, foodName string) (bool, error) {
	minute := loggedAt.Truncate(time.Minute)
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM food_logs
WHERE owner_id = ? AND food_name = ? AND logged_at >= ? AND logged_at < ?`,
		ownerID, foodName, millis(minute), millis(minute.Add(time.Minute))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("food log dedup lookup: %w", err)
	}
	return n > 0, nil
}
