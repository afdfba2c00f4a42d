package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

func TestParseCalories(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"95.5", 95.5, false},
		{" 120 ", 120, false},
		{"95.5 kcal", 95.5, false},
		{"", 0, false},
		{"250", 250, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCalories(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, syncerr.ErrValidation, "raw %q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestProfileMapping_LegacyShapes(t *testing.T) {
	age := 30
	weight := 70.5
	p := &models.UserProfile{
		OwnerID:            "uid-1",
		Email:              "a@example.com",
		Age:                &age,
		WeightKg:           &weight,
		DietaryPreferences: []string{"vegan", "gluten_free"},
		CheatDayEnabled:    true,
		OnboardingComplete: true,
	}

	row := toRemoteProfile(p)
	assert.Equal(t, "vegan,gluten_free", row.DietaryPreferences)
	assert.Equal(t, 1, row.CheatDayEnabled)
	assert.Equal(t, 0, row.MealReminders)
	assert.Equal(t, 1, row.OnboardingComplete)

	back := fromRemoteProfile(row)
	assert.Equal(t, p.DietaryPreferences, back.DietaryPreferences)
	assert.True(t, back.CheatDayEnabled)
	assert.False(t, back.MealReminders)
	require.NotNil(t, back.WeightKg)
	assert.Equal(t, 70.5, *back.WeightKg)
}

func TestFoodLogMapping_NumericCalories(t *testing.T) {
	e := &models.FoodLogEntry{
		OwnerID:  "uid-1",
		FoodName: "oats",
		Calories: "95.5",
		LoggedAt: time.Date(2025, 6, 1, 8, 30, 12, 0, time.UTC),
	}

	row, err := toRemoteFoodLog(e)
	require.NoError(t, err)
	assert.Equal(t, 95.5, row.Calories)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), row.LoggedMinute())

	back := fromRemoteFoodLog(row)
	assert.Equal(t, "95.5", back.Calories)
}

func TestFoodLogMapping_RejectsGarbageCalories(t *testing.T) {
	_, err := toRemoteFoodLog(&models.FoodLogEntry{OwnerID: "uid-1", Calories: "n/a"})
	assert.ErrorIs(t, err, syncerr.ErrValidation)
}
