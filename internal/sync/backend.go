// Package sync implements the engine that reconciles the device-local store
// with the cloud backend: per-kind push/pull strategies, a debounced trigger
// path, and the orchestrator state machine that runs passes.
package sync

import (
	"context"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
)

// Backend is the remote surface the engine needs. *remote.Client implements
// it; tests substitute an in-memory fake.
type Backend interface {
	SelectProfile(ctx context.Context, ownerID string) (*remote.ProfileRow, error)
	SelectProfileByEmail(ctx context.Context, email string) (*remote.ProfileRow, error)
	InsertProfile(ctx context.Context, p *remote.ProfileRow) error
	UpdateProfile(ctx context.Context, p *remote.ProfileRow) error
	UpdateProfileByEmail(ctx context.Context, email string, p *remote.ProfileRow) error

	UpsertFoodLog(ctx context.Context, r *remote.FoodLogRow) error
	SelectRecentFoodLogs(ctx context.Context, ownerID string, limit int) ([]*remote.FoodLogRow, error)

	UpsertWeightEntry(ctx context.Context, r *remote.WeightRow) error
	SelectRecentWeightEntries(ctx context.Context, ownerID string, limit int) ([]*remote.WeightRow, error)

	UpsertExerciseEntry(ctx context.Context, r *remote.ExerciseRow) error
	SelectRecentExerciseEntries(ctx context.Context, ownerID string, limit int) ([]*remote.ExerciseRow, error)

	SelectStreak(ctx context.Context, ownerID string) (*remote.StreakRow, error)
	UpsertStreak(ctx context.Context, s *remote.StreakRow) error

	SelectSubscription(ctx context.Context, ownerID string) (*remote.SubscriptionRow, error)
	UpsertSubscription(ctx context.Context, s *remote.SubscriptionRow) error

	SelectSettings(ctx context.Context, ownerID string) (*remote.SettingsRow, error)
	UpsertSettings(ctx context.Context, s *remote.SettingsRow) error
}

var _ Backend = (*remote.Client)(nil)
