package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

func TestStreakRepo_SaveAndRestoreRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Streaks.Get(ctx, "uid-1")
	require.ErrorIs(t, err, syncerr.ErrNotFound)

	day := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Streaks.Save(ctx, &models.StreakCounter{
		OwnerID: "uid-1", CurrentStreak: 4, LongestStreak: 9, LastActivityDate: day,
	}))

	got, err := s.Streaks.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, day, got.LastActivityDate)
	assert.False(t, got.Synced)

	require.NoError(t, s.Streaks.UpsertFromRemote(ctx, &models.StreakCounter{
		OwnerID: "uid-1", CurrentStreak: 6, LongestStreak: 9, LastActivityDate: day,
	}))
	got, err = s.Streaks.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentStreak)
	assert.True(t, got.Synced)
}

func TestSubscriptionRepo_RejectsUnknownState(t *testing.T) {
	s := setupStore(t)
	err := s.Subscriptions.Save(context.Background(), &models.SubscriptionStatus{
		OwnerID: "uid-1", Status: models.SubscriptionState("vip"),
	})
	require.ErrorIs(t, err, syncerr.ErrValidation)
}

func TestSubscriptionRepo_SaveAndMarkSynced(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	exp := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Subscriptions.Save(ctx, &models.SubscriptionStatus{
		OwnerID: "uid-1", Status: models.SubscriptionActive, Platform: "ios", ExpiresAt: &exp,
	}))

	got, err := s.Subscriptions.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.Status)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, exp, *got.ExpiresAt)

	require.NoError(t, s.Subscriptions.MarkSynced(ctx, "uid-1"))
	require.NoError(t, s.Subscriptions.MarkSynced(ctx, "uid-1"))
	got, err = s.Subscriptions.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, got.Synced)
}
