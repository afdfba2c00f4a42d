package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

func TestProfileRepo_GetNotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.Profiles.Get(context.Background(), "missing")
	require.ErrorIs(t, err, syncerr.ErrNotFound)
}

func TestProfileRepo_SaveInsertThenUpdate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	w := 70.0
	p := &models.UserProfile{
		OwnerID:            "uid-1",
		Email:              "a@b.c",
		FirstName:          "Ada",
		WeightKg:           &w,
		DietaryPreferences: []string{"vegetarian", "low-sodium"},
		OnboardingComplete: true,
	}
	require.NoError(t, s.Profiles.Save(ctx, p))
	assert.Equal(t, models.ActionCreate, p.SyncAction)

	got, err := s.Profiles.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	require.NotNil(t, got.WeightKg)
	assert.Equal(t, 70.0, *got.WeightKg)
	assert.Equal(t, []string{"vegetarian", "low-sodium"}, got.DietaryPreferences)
	assert.True(t, got.OnboardingComplete)
	assert.False(t, got.Synced)
	assert.Nil(t, got.Age, "unset nullable field stays nil")

	got.FirstName = "Ada L"
	require.NoError(t, s.Profiles.Save(ctx, got))
	assert.Equal(t, models.ActionUpdate, got.SyncAction)

	again, err := s.Profiles.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", again.FirstName)
}

func TestProfileRepo_MarkSyncedIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Profiles.Save(ctx, &models.UserProfile{OwnerID: "uid-1"}))
	require.NoError(t, s.Profiles.MarkSynced(ctx, "uid-1"))
	require.NoError(t, s.Profiles.MarkSynced(ctx, "uid-1"))

	p, err := s.Profiles.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, p.Synced)
	assert.Equal(t, models.ActionNone, p.SyncAction)
}

func TestProfileRepo_UpsertFromRemoteIsClean(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	age := 31
	require.NoError(t, s.Profiles.UpsertFromRemote(ctx, &models.UserProfile{
		OwnerID: "uid-1", Email: "a@b.c", Age: &age, OnboardingComplete: true,
	}))

	p, err := s.Profiles.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, p.Synced, "restored rows must not be re-pushed")
	assert.True(t, p.OnboardingComplete)

	dirty, err := s.Profiles.GetUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestProfileRepo_GetUnsyncedStableOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"uid-c", "uid-a", "uid-b"} {
		require.NoError(t, s.Profiles.Save(ctx, &models.UserProfile{OwnerID: id}))
	}
	dirty, err := s.Profiles.GetUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 3)
	assert.Equal(t, "uid-a", dirty[0].OwnerID)
	assert.Equal(t, "uid-b", dirty[1].OwnerID)
	assert.Equal(t, "uid-c", dirty[2].OwnerID)
}
