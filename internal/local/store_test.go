package local

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "local.db"), WithClock(testClock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := setupStore(t)

	for _, table := range []string{
		"user_profiles", "food_logs", "weight_entries", "exercise_entries",
		"streaks", "subscriptions", "settings_blobs", "sync_meta",
	} {
		var n int
		err := s.DB().QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		require.NoError(t, err, "table %s must exist", table)
	}
}

func TestStore_Ping(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	require.Error(t, s.Ping(context.Background()))
}

func TestStore_CountUnsynced(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n, err := s.CountUnsynced(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.Profiles.Save(ctx, &models.UserProfile{OwnerID: "uid-1", Email: "a@b.c"}))
	_, err = s.FoodLogs.Insert(ctx, &models.FoodLogEntry{
		OwnerID: "uid-1", FoodName: "oats", Calories: "120", LoggedAt: testClock(),
	})
	require.NoError(t, err)
	_, err = s.Weights.Insert(ctx, &models.WeightEntry{OwnerID: "uid-1", WeightKg: 70, RecordedAt: testClock()})
	require.NoError(t, err)

	// other owner's rows must not be counted
	require.NoError(t, s.Profiles.Save(ctx, &models.UserProfile{OwnerID: "uid-2"}))

	n, err = s.CountUnsynced(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// Writes that committed locally survive a process restart with synced=0.
func TestStore_DirtyRowsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := Open(ctx, path, WithClock(testClock))
	require.NoError(t, err)
	require.NoError(t, s.Profiles.Save(ctx, &models.UserProfile{OwnerID: "uid-1", Email: "a@b.c"}))
	_, err = s.Weights.Insert(ctx, &models.WeightEntry{OwnerID: "uid-1", WeightKg: 71.5, RecordedAt: testClock()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(ctx, path, WithClock(testClock))
	require.NoError(t, err)
	defer s2.Close()

	p, err := s2.Profiles.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, p.Synced)
	assert.Equal(t, models.ActionCreate, p.SyncAction)

	dirty, err := s2.Weights.GetUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, 71.5, dirty[0].WeightKg)
}

func TestMetaRepo_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, found, err := s.Meta.Get(ctx, MetaPendingSync)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Meta.Set(ctx, MetaPendingSync, "1"))
	require.NoError(t, s.Meta.Set(ctx, MetaPendingSync, "2"), "set must replace")

	v, found, err := s.Meta.Get(ctx, MetaPendingSync)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Meta.Delete(ctx, MetaPendingSync))
	require.NoError(t, s.Meta.Delete(ctx, MetaPendingSync), "delete is idempotent")
	_, found, err = s.Meta.Get(ctx, MetaPendingSync)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSettingsRepo_MergeFoldsFragments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Settings.Merge(ctx, "uid-1", json.RawMessage(`{"notifications":{"meals":true}}`)))
	require.NoError(t, s.Settings.Merge(ctx, "uid-1", json.RawMessage(`{"privacy":{"share":false}}`)))
	require.NoError(t, s.Settings.Merge(ctx, "uid-1", json.RawMessage(`{"notifications":{"meals":false}}`)))

	blob, err := s.Settings.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, blob.Synced)

	var doc map[string]map[string]bool
	require.NoError(t, json.Unmarshal(blob.Data, &doc))
	assert.Equal(t, false, doc["notifications"]["meals"], "later fragment wins per key")
	assert.Equal(t, false, doc["privacy"]["share"])
}

func TestSettingsRepo_RejectsMalformedJSON(t *testing.T) {
	s := setupStore(t)
	err := s.Settings.Save(context.Background(), &models.SettingsBlob{OwnerID: "uid-1", Data: json.RawMessage(`{oops`)})
	require.Error(t, err)
}
