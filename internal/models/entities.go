package models

import (
	"encoding/json"
	"time"
)

// UserProfile is the singleton per-owner profile row. Goal fields,
// notification preferences and cheat-day settings are denormalized into the
// same row; nullable business fields use pointers so a restore can tell
// "absent" apart from a zero value.
type UserProfile struct {
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
	DietaryPreferences []string
	CheatDayEnabled    bool
	CheatDayOfWeek     *int
	MealReminders      bool
	OnboardingComplete bool

	SyncMeta
}

// FoodLogEntry is one logged food item. Append-mostly; identified locally by
// an autoincrement id and remotely by the natural key
// (owner_id, logged_at rounded to the minute, food_name).
type FoodLogEntry struct {
	ID       int64
	OwnerID  string
	MealID   string
	FoodName string
	MealType string

	// Calories is kept as the raw device value; legacy clients wrote it as
	// text ("95.5"). The push mapping coerces it to a number.
	Calories string

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

	SyncMeta
}

// WeightEntry is one weigh-in. Append-only; deduplicated remotely by
// (owner_id, recorded_at rounded to the minute).
type WeightEntry struct {
	ID         int64
	OwnerID    string
	WeightKg   float64
	RecordedAt time.Time

	SyncMeta
}

// ExerciseEntry is one logged workout. Append-only, synced like food logs.
type ExerciseEntry struct {
	ID             int64
	OwnerID        string
	ExerciseName   string
	CaloriesBurned float64
	DurationMin    int
	Notes          string
	PerformedAt    time.Time

	SyncMeta
}

// StreakCounter is the singleton per-owner streak row.
//
// Continuity invariant: CurrentStreak <= days since LastActivityDate + 1.
// A restore must not regress a higher local value that still satisfies it.
type StreakCounter struct {
	OwnerID          string
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate time.Time

	SyncMeta
}

// Continuous reports whether the streak satisfies the continuity invariant
// relative to the given day.
func (s *StreakCounter) Continuous(today time.Time) bool {
	if s.CurrentStreak == 0 {
		return true
	}
	days := int(today.Sub(s.LastActivityDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return s.CurrentStreak <= days+1
}

// SubscriptionState enumerates subscription lifecycle states.
type SubscriptionState string

const (
	SubscriptionFreeTrial SubscriptionState = "free_trial"
	SubscriptionActive    SubscriptionState = "active"
	SubscriptionCanceled  SubscriptionState = "canceled"
	SubscriptionExpired   SubscriptionState = "expired"
)

// Valid reports whether s is a known subscription state.
func (s SubscriptionState) Valid() bool {
	switch s {
	case SubscriptionFreeTrial, SubscriptionActive, SubscriptionCanceled, SubscriptionExpired:
		return true
	}
	return false
}

// SubscriptionStatus is the singleton per-owner subscription row. The remote
// side is authoritative for Status: a restore overwrites the local value.
type SubscriptionStatus struct {
	OwnerID   string
	Status    SubscriptionState
	Platform  string
	ExpiresAt *time.Time

	SyncMeta
}

// SettingsBlob is the singleton per-owner opaque settings document, merged
// from the device-local preference stores into one JSON value.
type SettingsBlob struct {
	OwnerID string
	Data    json.RawMessage

	SyncMeta
}
