package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

func TestFoodLogRepo_InsertAndUnsyncedFIFO(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"oats", "banana", "coffee"} {
		_, err := s.FoodLogs.Insert(ctx, &models.FoodLogEntry{
			OwnerID: "uid-1", FoodName: name, Calories: "100", LoggedAt: testClock(),
		})
		require.NoError(t, err)
	}

	dirty, err := s.FoodLogs.GetUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 3)
	assert.Equal(t, "oats", dirty[0].FoodName, "dirty rows come back in insertion order")
	assert.Equal(t, "banana", dirty[1].FoodName)
	assert.Equal(t, "coffee", dirty[2].FoodName)
	assert.True(t, dirty[0].ID < dirty[1].ID && dirty[1].ID < dirty[2].ID)
}

func TestFoodLogRepo_LegacyStringCaloriesRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.FoodLogs.Insert(ctx, &models.FoodLogEntry{
		OwnerID: "uid-1", FoodName: "apple", Calories: "95.5", LoggedAt: testClock(),
	})
	require.NoError(t, err)

	dirty, err := s.FoodLogs.GetUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, id, dirty[0].ID)
	assert.Equal(t, "95.5", dirty[0].Calories, "raw device value preserved until push coercion")
	assert.NotEmpty(t, dirty[0].MealID, "meal id minted on insert")
}

func TestFoodLogRepo_MarkSyncedIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.FoodLogs.Insert(ctx, &models.FoodLogEntry{
		OwnerID: "uid-1", FoodName: "rice", Calories: "200", LoggedAt: testClock(),
	})
	require.NoError(t, err)

	require.NoError(t, s.FoodLogs.MarkSynced(ctx, id))
	require.NoError(t, s.FoodLogs.MarkSynced(ctx, id))

	dirty, err := s.FoodLogs.GetUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestFoodLogRepo_ExistsNatural(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 9, 30, 42, 0, time.UTC)
	require.NoError(t, s.FoodLogs.InsertFromRemote(ctx, &models.FoodLogEntry{
		OwnerID: "uid-1", FoodName: "toast", Calories: "150", LoggedAt: at,
	}))

	// same minute, different seconds: duplicate
	ok, err := s.FoodLogs.ExistsNatural(ctx, "uid-1", at.Add(10*time.Second), "toast")
	require.NoError(t, err)
	assert.True(t, ok)

	// next minute: distinct entry
	ok, err = s.FoodLogs.ExistsNatural(ctx, "uid-1", at.Add(time.Minute), "toast")
	require.NoError(t, err)
	assert.False(t, ok)

	// different food in the same minute: distinct entry
	ok, err = s.FoodLogs.ExistsNatural(ctx, "uid-1", at, "eggs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWeightRepo_ExistsNatural(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 7, 0, 5, 0, time.UTC)
	require.NoError(t, s.Weights.InsertFromRemote(ctx, &models.WeightEntry{
		OwnerID: "uid-1", WeightKg: 70.2, RecordedAt: at,
	}))

	ok, err := s.Weights.ExistsNatural(ctx, "uid-1", at.Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Weights.ExistsNatural(ctx, "uid-1", at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExerciseRepo_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.Exercises.Insert(ctx, &models.ExerciseEntry{
		OwnerID: "uid-1", ExerciseName: "run", CaloriesBurned: 300, DurationMin: 30,
		PerformedAt: testClock(),
	})
	require.NoError(t, err)

	dirty, err := s.Exercises.GetUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, id, dirty[0].ID)
	assert.Equal(t, "run", dirty[0].ExerciseName)

	require.NoError(t, s.Exercises.MarkSynced(ctx, id))
	dirty, err = s.Exercises.GetUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}
