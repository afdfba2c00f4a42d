package sync

import (
	"context"
	"fmt"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

// The append-only kinds share one shape: push uploads dirty rows in local-id
// order through an idempotent natural-key upsert, pull takes a bounded
// most-recent window and inserts only rows not already present locally.

type foodLogStrategy struct {
	*deps
}

func (s *foodLogStrategy) Kind() models.Kind { return models.KindFoodLog }

func (s *foodLogStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.FoodLogs.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty food logs: %w", err)}
	}

	var pushed int
	var errs []error
	for _, e := range dirty {
		if e.OwnerID != who.ID {
			continue
		}
		row, err := toRemoteFoodLog(e)
		if err != nil {
			// malformed row, reported and skipped
			errs = append(errs, fmt.Errorf("food log %d: %w", e.ID, err))
			continue
		}
		err = s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertFoodLog(ctx, row)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push food log %d: %w", e.ID, err))
			continue
		}
		if err := s.store.FoodLogs.MarkSynced(ctx, e.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark food log %d synced: %w", e.ID, err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

func (s *foodLogStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	rows, err := s.backend.SelectRecentFoodLogs(ctx, who.ID, s.window)
	if err != nil {
		return 0, []error{err}
	}

	var pulled int
	var errs []error
	for _, row := range rows {
		exists, err := s.store.FoodLogs.ExistsNatural(ctx, who.ID, row.LoggedAt, row.FoodName)
		if err != nil {
			errs = append(errs, fmt.Errorf("check food log presence: %w", err))
			continue
		}
		if exists {
			continue
		}
		if err := s.store.FoodLogs.InsertFromRemote(ctx, fromRemoteFoodLog(row)); err != nil {
			errs = append(errs, fmt.Errorf("restore food log: %w", err))
			continue
		}
		pulled++
	}
	return pulled, errs
}

type weightStrategy struct {
	*deps
}

func (s *weightStrategy) Kind() models.Kind { return models.KindWeight }

func (s *weightStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Weights.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty weight entries: %w", err)}
	}

	var pushed int
	var errs []error
	for _, e := range dirty {
		if e.OwnerID != who.ID {
			continue
		}
		row := toRemoteWeight(e)
		err := s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertWeightEntry(ctx, row)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push weight entry %d: %w", e.ID, err))
			continue
		}
		if err := s.store.Weights.MarkSynced(ctx, e.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark weight entry %d synced: %w", e.ID, err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

func (s *weightStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	rows, err := s.backend.SelectRecentWeightEntries(ctx, who.ID, s.window)
	if err != nil {
		return 0, []error{err}
	}

	var pulled int
	var errs []error
	for _, row := range rows {
		exists, err := s.store.Weights.ExistsNatural(ctx, who.ID, row.RecordedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("check weight entry presence: %w", err))
			continue
		}
		if exists {
			continue
		}
		if err := s.store.Weights.InsertFromRemote(ctx, fromRemoteWeight(row)); err != nil {
			errs = append(errs, fmt.Errorf("restore weight entry: %w", err))
			continue
		}
		pulled++
	}
	return pulled, errs
}

type exerciseStrategy struct {
	*deps
}

func (s *exerciseStrategy) Kind() models.Kind { return models.KindExercise }

func (s *exerciseStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Exercises.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty exercise entries: %w", err)}
	}

	var pushed int
	var errs []error
	for _, e := range dirty {
		if e.OwnerID != who.ID {
			continue
		}
		row := toRemoteExercise(e)
		err := s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertExerciseEntry(ctx, row)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push exercise entry %d: %w", e.ID, err))
			continue
		}
		if err := s.store.Exercises.MarkSynced(ctx, e.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark exercise entry %d synced: %w", e.ID, err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

func (s *exerciseStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	rows, err := s.backend.SelectRecentExerciseEntries(ctx, who.ID, s.window)
	if err != nil {
		return 0, []error{err}
	}

	var pulled int
	var errs []error
	for _, row := range rows {
		exists, err := s.store.Exercises.ExistsNatural(ctx, who.ID, row.PerformedAt, row.ExerciseName)
		if err != nil {
			errs = append(errs, fmt.Errorf("check exercise entry presence: %w", err))
			continue
		}
		if exists {
			continue
		}
		if err := s.store.Exercises.InsertFromRemote(ctx, fromRemoteExercise(row)); err != nil {
			errs = append(errs, fmt.Errorf("restore exercise entry: %w", err))
			continue
		}
		pulled++
	}
	return pulled, errs
}
