package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// parseCalories coerces the raw device calories value to a number. Legacy
// clients wrote it as text, sometimes with surrounding whitespace or a unit
// suffix ("95.5 kcal"). Empty means zero.
func parseCalories(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: calories %q is not numeric", syncerr.ErrValidation, raw)
	}
	return v, nil
}

func formatCalories(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toRemoteProfile maps a local profile onto the cloud row shape: list fields
// become comma-delimited text, booleans become 0/1 integers.
func toRemoteProfile(p *models.UserProfile) *remote.ProfileRow {
	return &remote.ProfileRow{
		OwnerID:            p.OwnerID,
		Email:              p.Email,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Gender:             p.Gender,
		Age:                p.Age,
		HeightCm:           p.HeightCm,
		WeightKg:           p.WeightKg,
		ActivityLevel:      p.ActivityLevel,
		WeightGoal:         p.WeightGoal,
		TargetWeightKg:     p.TargetWeightKg,
		DailyCalorieGoal:   p.DailyCalorieGoal,
		DietaryPreferences: models.JoinList(p.DietaryPreferences),
		CheatDayEnabled:    boolToInt(p.CheatDayEnabled),
		CheatDayOfWeek:     p.CheatDayOfWeek,
		MealReminders:      boolToInt(p.MealReminders),
		OnboardingComplete: boolToInt(p.OnboardingComplete),
	}
}

func fromRemoteProfile(r *remote.ProfileRow) *models.UserProfile {
	return &models.UserProfile{
		OwnerID:            r.OwnerID,
		Email:              r.Email,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Gender:             r.Gender,
		Age:                r.Age,
		HeightCm:           r.HeightCm,
		WeightKg:           r.WeightKg,
		ActivityLevel:      r.ActivityLevel,
		WeightGoal:         r.WeightGoal,
		TargetWeightKg:     r.TargetWeightKg,
		DailyCalorieGoal:   r.DailyCalorieGoal,
		DietaryPreferences: models.SplitList(r.DietaryPreferences),
		CheatDayEnabled:    r.CheatDayEnabled != 0,
		CheatDayOfWeek:     r.CheatDayOfWeek,
		MealReminders:      r.MealReminders != 0,
		OnboardingComplete: r.OnboardingComplete != 0,
	}
}

// toRemoteFoodLog maps a local food log entry onto the cloud row shape.
// Calories is the one lossy-looking coercion: text locally, numeric remotely.
func toRemoteFoodLog(e *models.FoodLogEntry) (*remote.FoodLogRow, error) {
	cal, err := parseCalories(e.Calories)
	if err != nil {
		return nil, err
	}
	return &remote.FoodLogRow{
		OwnerID:       e.OwnerID,
		MealID:        e.MealID,
		FoodName:      e.FoodName,
		MealType:      e.MealType,
		Calories:      cal,
		Proteins:      e.Proteins,
		Carbs:         e.Carbs,
		Fats:          e.Fats,
		Fiber:         e.Fiber,
		Sugar:         e.Sugar,
		SaturatedFat:  e.SaturatedFat,
		Cholesterol:   e.Cholesterol,
		Sodium:        e.Sodium,
		Potassium:     e.Potassium,
		ServingWeight: e.ServingWeight,
		WeightUnit:    e.WeightUnit,
		ImageURL:      e.ImageURL,
		LoggedAt:      e.LoggedAt,
	}, nil
}

func fromRemoteFoodLog(r *remote.FoodLogRow) *models.FoodLogEntry {
	return &models.FoodLogEntry{
		OwnerID:       r.OwnerID,
		MealID:        r.MealID,
		FoodName:      r.FoodName,
		MealType:      r.MealType,
		Calories:      formatCalories(r.Calories),
		Proteins:      r.Proteins,
		Carbs:         r.Carbs,
		Fats:          r.Fats,
		Fiber:         r.Fiber,
		Sugar:         r.Sugar,
		SaturatedFat:  r.SaturatedFat,
		Cholesterol:   r.Cholesterol,
		Sodium:        r.Sodium,
		Potassium:     r.Potassium,
		ServingWeight: r.ServingWeight,
		WeightUnit:    r.WeightUnit,
		ImageURL:      r.ImageURL,
		LoggedAt:      r.LoggedAt,
	}
}

func toRemoteWeight(e *models.WeightEntry) *remote.WeightRow {
	return &remote.WeightRow{OwnerID: e.OwnerID, WeightKg: e.WeightKg, RecordedAt: e.RecordedAt}
}

func fromRemoteWeight(r *remote.WeightRow) *models.WeightEntry {
	return &models.WeightEntry{OwnerID: r.OwnerID, WeightKg: r.WeightKg, RecordedAt: r.RecordedAt}
}

func toRemoteExercise(e *models.ExerciseEntry) *remote.ExerciseRow {
	return &remote.ExerciseRow{
		OwnerID:        e.OwnerID,
		ExerciseName:   e.ExerciseName,
		CaloriesBurned: e.CaloriesBurned,
		DurationMin:    e.DurationMin,
		Notes:          e.Notes,
		PerformedAt:    e.PerformedAt,
	}
}

func fromRemoteExercise(r *remote.ExerciseRow) *models.ExerciseEntry {
	return &models.ExerciseEntry{
		OwnerID:        r.OwnerID,
		ExerciseName:   r.ExerciseName,
		CaloriesBurned: r.CaloriesBurned,
		DurationMin:    r.DurationMin,
		Notes:          r.Notes,
		PerformedAt:    r.PerformedAt,
	}
}

func toRemoteStreak(s *models.StreakCounter) *remote.StreakRow {
	return &remote.StreakRow{
		OwnerID:          s.OwnerID,
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		LastActivityDate: s.LastActivityDate,
	}
}

func fromRemoteStreak(r *remote.StreakRow) *models.StreakCounter {
	return &models.StreakCounter{
		OwnerID:          r.OwnerID,
		CurrentStreak:    r.CurrentStreak,
		LongestStreak:    r.LongestStreak,
		LastActivityDate: r.LastActivityDate,
	}
}

func toRemoteSubscription(s *models.SubscriptionStatus) *remote.SubscriptionRow {
	return &remote.SubscriptionRow{
		OwnerID:   s.OwnerID,
		Status:    string(s.Status),
		Platform:  s.Platform,
		ExpiresAt: s.ExpiresAt,
	}
}

func fromRemoteSubscription(r *remote.SubscriptionRow) *models.SubscriptionStatus {
	return &models.SubscriptionStatus{
		OwnerID:   r.OwnerID,
		Status:    models.SubscriptionState(r.Status),
		Platform:  r.Platform,
		ExpiresAt: r.ExpiresAt,
	}
}

func toRemoteSettings(s *models.SettingsBlob) *remote.SettingsRow {
	return &remote.SettingsRow{OwnerID: s.OwnerID, Data: []byte(s.Data)}
}

func fromRemoteSettings(r *remote.SettingsRow) *models.SettingsBlob {
	return &models.SettingsBlob{OwnerID: r.OwnerID, Data: r.Data}
}
