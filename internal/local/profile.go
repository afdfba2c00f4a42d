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

// ProfileRepo persists the singleton user profile row.
type ProfileRepo struct {
	db  *sql.DB
	now func() time.Time
}

const profileColumns = `owner_id, email, first_name, last_name, gender, age,
height_cm, weight_kg, activity_level, weight_goal, target_weight_kg,
daily_calorie_goal, dietary_preferences, cheat_day_enabled, cheat_day_of_week,
meal_reminders, onboarding_complete, synced, sync_action, last_modified`

func scanProfile(row interface{ Scan(...any) error }) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var (
		age, calorieGoal, cheatDOW              sql.NullInt64
		height, weight, target                  sql.NullFloat64
		prefs                                   string
		cheatDay, reminders, onboarding, synced int
		lastModified                            int64
		action                                  string
	)
	err := row.Scan(&p.OwnerID, &p.Email, &p.FirstName, &p.LastName, &p.Gender, &age,
		&height, &weight, &p.ActivityLevel, &p.WeightGoal, &target,
		&calorieGoal, &prefs, &cheatDay, &cheatDOW,
		&reminders, &onboarding, &synced, &action, &lastModified)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if height.Valid {
		p.HeightCm = &height.Float64
	}
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}
	if target.Valid {
		p.TargetWeightKg = &target.Float64
	}
	if calorieGoal.Valid {
		v := int(calorieGoal.Int64)
		p.DailyCalorieGoal = &v
	}
	if cheatDOW.Valid {
		v := int(cheatDOW.Int64)
		p.CheatDayOfWeek = &v
	}
	p.DietaryPreferences = models.SplitList(prefs)
	p.CheatDayEnabled = cheatDay != 0
	p.MealReminders = reminders != 0
	p.OnboardingComplete = onboarding != 0
	p.Synced = synced != 0
	p.SyncAction = models.SyncAction(action)
	p.LastModified = fromMillis(lastModified)
	return p, nil
}

// Get returns the profile for ownerID, or syncerr.ErrNotFound.
func (r *ProfileRepo) Get(ctx context.Context, ownerID string) (*models.UserProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM user_profiles WHERE owner_id = ?`
	p, err := scanProfile(r.db.QueryRowContext(ctx, q, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncerr.ErrNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// Save writes p with update-else-insert semantics, marks the row dirty and
// refreshes last_modified.
func (r *ProfileRepo) Save(ctx context.Context, p *models.UserProfile) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE user_profiles SET
  email = ?, first_name = ?, last_name = ?, gender = ?, age = ?,
  height_cm = ?, weight_kg = ?, activity_level = ?, weight_goal = ?,
  target_weight_kg = ?, daily_calorie_goal = ?, dietary_preferences = ?,
  cheat_day_enabled = ?, cheat_day_of_week = ?, meal_reminders = ?,
  onboarding_complete = ?, synced = 0, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			p.Email, p.FirstName, p.LastName, p.Gender, p.Age,
			p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal,
			p.TargetWeightKg, p.DailyCalorieGoal, models.JoinList(p.DietaryPreferences),
			boolInt(p.CheatDayEnabled), p.CheatDayOfWeek, boolInt(p.MealReminders),
			boolInt(p.OnboardingComplete), string(models.ActionUpdate), now, p.OwnerID)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			p.Synced = false
			p.SyncAction = models.ActionUpdate
			p.LastModified = fromMillis(now)
			return nil
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO user_profiles (`+profileColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			p.OwnerID, p.Email, p.FirstName, p.LastName, p.Gender, p.Age,
			p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal, p.TargetWeightKg,
			p.DailyCalorieGoal, models.JoinList(p.DietaryPreferences),
			boolInt(p.CheatDayEnabled), p.CheatDayOfWeek, boolInt(p.MealReminders),
			boolInt(p.OnboardingComplete), string(models.ActionCreate), now)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		p.Synced = false
		p.SyncAction = models.ActionCreate
		p.LastModified = fromMillis(now)
		return nil
	})
}

// MarkDirty flags the row for push without touching business fields.
func (r *ProfileRepo) MarkDirty(ctx context.Context, ownerID string, action models.SyncAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET synced = 0, sync_action = ?, last_modified = ? WHERE owner_id = ?`,
		string(action), millis(r.now()), ownerID)
	if err != nil {
		return fmt.Errorf("mark profile dirty: %w", err)
	}
	return nil
}

// MarkSynced marks the row clean. Idempotent: repeated calls are no-ops.
func (r *ProfileRepo) MarkSynced(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET synced = 1, sync_action = ? WHERE owner_id = ?`,
		string(models.ActionNone), ownerID)
	if err != nil {
		return fmt.Errorf("mark profile synced: %w", err)
	}
	return nil
}

// MarkAllDirty flags the owner's row for the push-everything pass an initial
// backup performs.
func (r *ProfileRepo) MarkAllDirty(ctx context.Context, ownerID string) error {
	return r.MarkDirty(ctx, ownerID, models.ActionUpdate)
}

// GetUnsynced returns all dirty profile rows in stable owner order.
func (r *ProfileRepo) GetUnsynced(ctx context.Context) ([]*models.UserProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM user_profiles WHERE synced = 0 ORDER BY owner_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select unsynced profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertFromRemote writes remote truth into the local row and marks it clean
// immediately so it is not re-pushed.
func (r *ProfileRepo) UpsertFromRemote(ctx context.Context, p *models.UserProfile) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := millis(r.now())
		res, err := tx.ExecContext(ctx, `
UPDATE user_profiles SET
  email = ?, first_name = ?, last_name = ?, gender = ?, age = ?,
  height_cm = ?, weight_kg = ?, activity_level = ?, weight_goal = ?,
  target_weight_kg = ?, daily_calorie_goal = ?, dietary_preferences = ?,
  cheat_day_enabled = ?, cheat_day_of_week = ?, meal_reminders = ?,
  onboarding_complete = ?, synced = 1, sync_action = ?, last_modified = ?
WHERE owner_id = ?`,
			p.Email, p.FirstName, p.LastName, p.Gender, p.Age,
			p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal,
			p.TargetWeightKg, p.DailyCalorieGoal, models.JoinList(p.DietaryPreferences),
			boolInt(p.CheatDayEnabled), p.CheatDayOfWeek, boolInt(p.MealReminders),
			boolInt(p.OnboardingComplete), string(models.ActionNone), now, p.OwnerID)
		if err != nil {
			return fmt.Errorf("upsert profile from remote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO user_profiles (`+profileColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			p.OwnerID, p.Email, p.FirstName, p.LastName, p.Gender, p.Age,
			p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal, p.TargetWeightKg,
			p.DailyCalorieGoal, models.JoinList(p.DietaryPreferences),
			boolInt(p.CheatDayEnabled), p.CheatDayOfWeek, boolInt(p.MealReminders),
			boolInt(p.OnboardingComplete), string(models.ActionNone), now)
		if err != nil {
			return fmt.Errorf("upsert profile from remote: %w", err)
		}
		return nil
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
