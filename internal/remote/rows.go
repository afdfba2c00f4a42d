// Package remote is the typed request layer to the cloud relational backend.
// It exposes per-entity CRUD plus upsert-by-natural-key and classifies every
// failure into the shared error taxonomy; nothing here is swallowed.
package remote

import "time"

// ProfileRow is the remote representation of a user profile. The cloud schema
// predates the typed client and keeps its legacy shapes: booleans as 0/1
// integers and list fields as comma-delimited text.
type ProfileRow struct {
	OwnerID            string
	Email              string
	FirstName          string
	LastName           string
	Gender             string
	Age                *int
	HeightCm           *float64
	WeightKg           *float64
	ActivityLevel      string
	WeightGoal         string
	TargetWeightKg     *float64
	DailyCalorieGoal   *int
	DietaryPreferences string
	CheatDayEnabled    int
	CheatDayOfWeek     *int
	MealReminders      int
	OnboardingComplete int
	UpdatedAt          time.Time
}

// FoodLogRow is the remote representation of one food log entry. Calories is
// numeric remotely even though legacy device rows carry it as text; the
// LoggedMinute column backs the (owner, minute, food) dedup key.
type FoodLogRow struct {
	OwnerID       string
	MealID        string
	FoodName      string
	MealType      string
	Calories      float64
	Proteins      float64
	Carbs         float64
	Fats          float64
	Fiber         float64
	Sugar         float64
	SaturatedFat  float64
	Cholesterol   float64
	Sodium        float64
	Potassium     float64
	ServingWeight *float64
	WeightUnit    string
	ImageURL      string
	LoggedAt      time.Time
}

// LoggedMinute returns the dedup-key minute for the row.
func (r *FoodLogRow) LoggedMinute() time.Time { return r.LoggedAt.Truncate(time.Minute) }

// WeightRow is the remote representation of one weigh-in.
type WeightRow struct {
	OwnerID    string
	WeightKg   float64
	RecordedAt time.Time
}

// RecordedMinute returns the dedup-key minute for the row.
func (r *WeightRow) RecordedMinute() time.Time { return r.RecordedAt.Truncate(time.Minute) }

// ExerciseRow is the remote representation of one workout entry.
type ExerciseRow struct {
	OwnerID        string
	ExerciseName   string
	CaloriesBurned float64
	DurationMin    int
	Notes          string
	PerformedAt    time.Time
}

// PerformedMinute returns the dedup-key minute for the row.
func (r *ExerciseRow) PerformedMinute() time.Time { return r.PerformedAt.Truncate(time.Minute) }

// StreakRow is the remote representation of the streak counter.
type StreakRow struct {
	OwnerID          string
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate time.Time
}

// SubscriptionRow is the remote representation of the subscription status.
// The remote side is authoritative for Status.
type SubscriptionRow struct {
	OwnerID   string
	Status    string
	Platform  string
	ExpiresAt *time.Time
}

// SettingsRow is the remote representation of the opaque settings document.
type SettingsRow struct {
	OwnerID string
	Data    []byte
}
