package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/dbx"
)

// defaultCallTimeout bounds every remote round-trip. Exceeding it classifies
// as transient.
const defaultCallTimeout = 20 * time.Second

// Client talks to the cloud relational backend over an authenticated pgx
// connection. All methods classify failures via the syncerr taxonomy.
type Client struct {
	db      dbx.DBTX
	timeout time.Duration
}

// Option customizes Client construction.
type Option func(*Client)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New wraps an existing handle. Tests pass a fake or an in-memory DB here.
func New(db dbx.DBTX, opts ...Option) *Client {
	c := &Client{db: db, timeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open dials the backend at dsn and returns a Client plus the owned handle.
func Open(dsn string, opts ...Option) (*Client, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open remote backend: %w", err)
	}
	return New(db, opts...), db, nil
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// --- profiles ---

const profileSelectColumns = `owner_id, email, first_name, last_name, gender, age,
height_cm, weight_kg, activity_level, weight_goal, target_weight_kg,
daily_calorie_goal, dietary_preferences, cheat_day_enabled, cheat_day_of_week,
meal_reminders, onboarding_complete, updated_at`

func scanProfileRow(row *sql.Row) (*ProfileRow, error) {
	p := &ProfileRow{}
	err := row.Scan(&p.OwnerID, &p.Email, &p.FirstName, &p.LastName, &p.Gender, &p.Age,
		&p.HeightCm, &p.WeightKg, &p.ActivityLevel, &p.WeightGoal, &p.TargetWeightKg,
		&p.DailyCalorieGoal, &p.DietaryPreferences, &p.CheatDayEnabled, &p.CheatDayOfWeek,
		&p.MealReminders, &p.OnboardingComplete, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SelectProfile fetches the profile owned by ownerID.
func (c *Client) SelectProfile(ctx context.Context, ownerID string) (*ProfileRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	q := `SELECT ` + profileSelectColumns + ` FROM user_profiles WHERE owner_id = $1`
	p, err := scanProfileRow(c.db.QueryRowContext(ctx, q, ownerID))
	if err != nil {
		return nil, wrapErr("select profile", err)
	}
	return p, nil
}

// SelectProfileByEmail is the alternate-key lookup used to resolve insert
// conflicts after an account has been recreated under a new identity id.
func (c *Client) SelectProfileByEmail(ctx context.Context, email string) (*ProfileRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	q := `SELECT ` + profileSelectColumns + ` FROM user_profiles WHERE email = $1`
	p, err := scanProfileRow(c.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return nil, wrapErr("select profile by email", err)
	}
	return p, nil
}

// InsertProfile creates the remote profile row.
func (c *Client) InsertProfile(ctx context.Context, p *ProfileRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO user_profiles (owner_id, email, first_name, last_name, gender, age,
  height_cm, weight_kg, activity_level, weight_goal, target_weight_kg,
  daily_calorie_goal, dietary_preferences, cheat_day_enabled, cheat_day_of_week,
  meal_reminders, onboarding_complete, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())`,
		p.OwnerID, p.Email, p.FirstName, p.LastName, p.Gender, p.Age,
		p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal, p.TargetWeightKg,
		p.DailyCalorieGoal, p.DietaryPreferences, p.CheatDayEnabled, p.CheatDayOfWeek,
		p.MealReminders, p.OnboardingComplete)
	return wrapErr("insert profile", err)
}

// UpdateProfile overwrites the remote row keyed by owner identity.
func (c *Client) UpdateProfile(ctx context.Context, p *ProfileRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
UPDATE user_profiles SET email = $2, first_name = $3, last_name = $4, gender = $5,
  age = $6, height_cm = $7, weight_kg = $8, activity_level = $9, weight_goal = $10,
  target_weight_kg = $11, daily_calorie_goal = $12, dietary_preferences = $13,
  cheat_day_enabled = $14, cheat_day_of_week = $15, meal_reminders = $16,
  onboarding_complete = $17, updated_at = now()
WHERE owner_id = $1`,
		p.OwnerID, p.Email, p.FirstName, p.LastName, p.Gender,
		p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal,
		p.TargetWeightKg, p.DailyCalorieGoal, p.DietaryPreferences,
		p.CheatDayEnabled, p.CheatDayOfWeek, p.MealReminders, p.OnboardingComplete)
	return wrapErr("update profile", err)
}

// UpdateProfileByEmail rewrites the row found by email, including its
// owner_id. Used once per identity-reissuance conflict: the old remote row is
// adopted by the new identity rather than duplicated.
func (c *Client) UpdateProfileByEmail(ctx context.Context, email string, p *ProfileRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
UPDATE user_profiles SET owner_id = $2, first_name = $3, last_name = $4, gender = $5,
  age = $6, height_cm = $7, weight_kg = $8, activity_level = $9, weight_goal = $10,
  target_weight_kg = $11, daily_calorie_goal = $12, dietary_preferences = $13,
  cheat_day_enabled = $14, cheat_day_of_week = $15, meal_reminders = $16,
  onboarding_complete = $17, updated_at = now()
WHERE email = $1`,
		email, p.OwnerID, p.FirstName, p.LastName, p.Gender,
		p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel, p.WeightGoal,
		p.TargetWeightKg, p.DailyCalorieGoal, p.DietaryPreferences,
		p.CheatDayEnabled, p.CheatDayOfWeek, p.MealReminders, p.OnboardingComplete)
	return wrapErr("update profile by email", err)
}

// --- food logs ---

// UpsertFoodLog inserts the entry or, when its (owner, minute, food) dedup
// key already exists, overwrites that row. Re-running a partially failed push
// therefore never duplicates entries.
func (c *Client) UpsertFoodLog(ctx context.Context, r *FoodLogRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO food_logs (owner_id, meal_id, food_name, meal_type, calories,
  proteins, carbs, fats, fiber, sugar, saturated_fat, cholesterol, sodium,
  potassium, serving_weight, weight_unit, image_url, logged_at, logged_minute)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (owner_id, food_name, logged_minute) DO UPDATE SET
  meal_id = excluded.meal_id, meal_type = excluded.meal_type,
  calories = excluded.calories, proteins = excluded.proteins,
  carbs = excluded.carbs, fats = excluded.fats, fiber = excluded.fiber,
  sugar = excluded.sugar, saturated_fat = excluded.saturated_fat,
  cholesterol = excluded.cholesterol, sodium = excluded.sodium,
  potassium = excluded.potassium, serving_weight = excluded.serving_weight,
  weight_unit = excluded.weight_unit, image_url = excluded.image_url,
  logged_at = excluded.logged_at`,
		r.OwnerID, r.MealID, r.FoodName, r.MealType, r.Calories,
		r.Proteins, r.Carbs, r.Fats, r.Fiber, r.Sugar, r.SaturatedFat,
		r.Cholesterol, r.Sodium, r.Potassium, r.ServingWeight, r.WeightUnit,
		r.ImageURL, r.LoggedAt, r.LoggedMinute())
	return wrapErr("upsert food log", err)
}

// SelectRecentFoodLogs pulls the owner's most recent entries, newest first,
// bounded by limit.
func (c *Client) SelectRecentFoodLogs(ctx context.Context, ownerID string, limit int) ([]*FoodLogRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
SELECT owner_id, meal_id, food_name, meal_type, calories, proteins, carbs,
  fats, fiber, sugar, saturated_fat, cholesterol, sodium, potassium,
  serving_weight, weight_unit, image_url, logged_at
FROM food_logs WHERE owner_id = $1
ORDER BY logged_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, wrapErr("select recent food logs", err)
	}
	defer rows.Close()

	var out []*FoodLogRow
	for rows.Next() {
		r := &FoodLogRow{}
		err := rows.Scan(&r.OwnerID, &r.MealID, &r.FoodName, &r.MealType, &r.Calories,
			&r.Proteins, &r.Carbs, &r.Fats, &r.Fiber, &r.Sugar, &r.SaturatedFat,
			&r.Cholesterol, &r.Sodium, &r.Potassium, &r.ServingWeight, &r.WeightUnit,
			&r.ImageURL, &r.LoggedAt)
		if err != nil {
			return nil, wrapErr("select recent food logs", err)
		}
		out = append(out, r)
	}
	return out, wrapErr("select recent food logs", rows.Err())
}

// --- weight entries ---

// UpsertWeightEntry inserts the weigh-in, deduplicated on (owner, minute).
func (c *Client) UpsertWeightEntry(ctx context.Context, r *WeightRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO weight_entries (owner_id, weight_kg, recorded_at, recorded_minute)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id, recorded_minute) DO UPDATE SET
  weight_kg = excluded.weight_kg, recorded_at = excluded.recorded_at`,
		r.OwnerID, r.WeightKg, r.RecordedAt, r.RecordedMinute())
	return wrapErr("upsert weight entry", err)
}

// SelectRecentWeightEntries pulls the owner's most recent weigh-ins.
func (c *Client) SelectRecentWeightEntries(ctx context.Context, ownerID string, limit int) ([]*WeightRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
SELECT owner_id, weight_kg, recorded_at FROM weight_entries
WHERE owner_id = $1 ORDER BY recorded_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, wrapErr("select recent weight entries", err)
	}
	defer rows.Close()

	var out []*WeightRow
	for rows.Next() {
		r := &WeightRow{}
		if err := rows.Scan(&r.OwnerID, &r.WeightKg, &r.RecordedAt); err != nil {
			return nil, wrapErr("select recent weight entries", err)
		}
		out = append(out, r)
	}
	return out, wrapErr("select recent weight entries", rows.Err())
}

// --- exercise entries ---

// UpsertExerciseEntry inserts the workout, deduplicated on
// (owner, name, minute).
func (c *Client) UpsertExerciseEntry(ctx context.Context, r *ExerciseRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO exercise_entries (owner_id, exercise_name, calories_burned,
  duration_min, notes, performed_at, performed_minute)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_id, exercise_name, performed_minute) DO UPDATE SET
  calories_burned = excluded.calories_burned, duration_min = excluded.duration_min,
  notes = excluded.notes, performed_at = excluded.performed_at`,
		r.OwnerID, r.ExerciseName, r.CaloriesBurned, r.DurationMin, r.Notes,
		r.PerformedAt, r.PerformedMinute())
	return wrapErr("upsert exercise entry", err)
}

// SelectRecentExerciseEntries pulls the owner's most recent workouts.
func (c *Client) SelectRecentExerciseEntries(ctx context.Context, ownerID string, limit int) ([]*ExerciseRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
SELECT owner_id, exercise_name, calories_burned, duration_min, notes, performed_at
FROM exercise_entries WHERE owner_id = $1
ORDER BY performed_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, wrapErr("select recent exercise entries", err)
	}
	defer rows.Close()

	var out []*ExerciseRow
	for rows.Next() {
		r := &ExerciseRow{}
		err := rows.Scan(&r.OwnerID, &r.ExerciseName, &r.CaloriesBurned,
			&r.DurationMin, &r.Notes, &r.PerformedAt)
		if err != nil {
			return nil, wrapErr("select recent exercise entries", err)
		}
		out = append(out, r)
	}
	return out, wrapErr("select recent exercise entries", rows.Err())
}

// --- streaks ---

// SelectStreak fetches the streak counter owned by ownerID.
func (c *Client) SelectStreak(ctx context.Context, ownerID string) (*StreakRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	s := &StreakRow{}
	err := c.db.QueryRowContext(ctx, `
SELECT owner_id, current_streak, longest_streak, last_activity_date
FROM streaks WHERE owner_id = $1`, ownerID).
		Scan(&s.OwnerID, &s.CurrentStreak, &s.LongestStreak, &s.LastActivityDate)
	if err != nil {
		return nil, wrapErr("select streak", err)
	}
	return s, nil
}

// UpsertStreak writes the streak row with upsert-on-owner semantics.
func (c *Client) UpsertStreak(ctx context.Context, s *StreakRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO streaks (owner_id, current_streak, longest_streak, last_activity_date)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id) DO UPDATE SET
  current_streak = excluded.current_streak,
  longest_streak = excluded.longest_streak,
  last_activity_date = excluded.last_activity_date`,
		s.OwnerID, s.CurrentStreak, s.LongestStreak, s.LastActivityDate)
	return wrapErr("upsert streak", err)
}

// --- subscriptions ---

// SelectSubscription fetches the subscription row owned by ownerID.
func (c *Client) SelectSubscription(ctx context.Context, ownerID string) (*SubscriptionRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	s := &SubscriptionRow{}
	err := c.db.QueryRowContext(ctx, `
SELECT owner_id, status, platform, expires_at
FROM subscriptions WHERE owner_id = $1`, ownerID).
		Scan(&s.OwnerID, &s.Status, &s.Platform, &s.ExpiresAt)
	if err != nil {
		return nil, wrapErr("select subscription", err)
	}
	return s, nil
}

// UpsertSubscription writes the subscription row with upsert-on-owner
// semantics.
func (c *Client) UpsertSubscription(ctx context.Context, s *SubscriptionRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO subscriptions (owner_id, status, platform, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id) DO UPDATE SET
  status = excluded.status, platform = excluded.platform,
  expires_at = excluded.expires_at`,
		s.OwnerID, s.Status, s.Platform, s.ExpiresAt)
	return wrapErr("upsert subscription", err)
}

// --- settings ---

// SelectSettings fetches the settings document owned by ownerID.
func (c *Client) SelectSettings(ctx context.Context, ownerID string) (*SettingsRow, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	s := &SettingsRow{}
	err := c.db.QueryRowContext(ctx, `
SELECT owner_id, data FROM settings_blobs WHERE owner_id = $1`, ownerID).
		Scan(&s.OwnerID, &s.Data)
	if err != nil {
		return nil, wrapErr("select settings", err)
	}
	return s, nil
}

// UpsertSettings writes the settings document with upsert-on-owner semantics.
func (c *Client) UpsertSettings(ctx context.Context, s *SettingsRow) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
INSERT INTO settings_blobs (owner_id, data) VALUES ($1, $2)
ON CONFLICT (owner_id) DO UPDATE SET data = excluded.data`,
		s.OwnerID, s.Data)
	return wrapErr("upsert settings", err)
}
