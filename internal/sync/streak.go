package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

type streakStrategy struct {
	*deps
}

func (s *streakStrategy) Kind() models.Kind { return models.KindStreak }

// Push uploads the dirty streak row via upsert-on-owner.
func (s *streakStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Streaks.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty streaks: %w", err)}
	}

	var pushed int
	var errs []error
	for _, row := range dirty {
		if row.OwnerID != who.ID {
			continue
		}
		rem := toRemoteStreak(row)
		err := s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertStreak(ctx, rem)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.Streaks.MarkSynced(ctx, row.OwnerID); err != nil {
			errs = append(errs, fmt.Errorf("mark streak synced: %w", err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

// Pull merges the remote streak into the local one. A local streak that still
// satisfies the continuity invariant never loses its current value to a lower
// remote one; longest_streak only grows; the later activity date wins.
func (s *streakStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	var row *remote.StreakRow
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.backend.SelectStreak(ctx, who.ID)
		return err
	})
	if errors.Is(err, syncerr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{err}
	}
	rem := fromRemoteStreak(row)

	loc, err := s.store.Streaks.Get(ctx, who.ID)
	if errors.Is(err, syncerr.ErrNotFound) {
		if err := s.store.Streaks.UpsertFromRemote(ctx, rem); err != nil {
			return 0, []error{fmt.Errorf("adopt remote streak: %w", err)}
		}
		return 1, nil
	}
	if err != nil {
		return 0, []error{fmt.Errorf("load local streak: %w", err)}
	}

	merged, changed := mergeStreak(loc, rem, s.now())
	if !changed {
		return 0, nil
	}
	if loc.Dirty() {
		err = s.store.Streaks.Save(ctx, merged)
	} else {
		err = s.store.Streaks.UpsertFromRemote(ctx, merged)
	}
	if err != nil {
		return 0, []error{fmt.Errorf("merge remote streak: %w", err)}
	}
	return 1, nil
}

func mergeStreak(loc, rem *models.StreakCounter, today time.Time) (*models.StreakCounter, bool) {
	out := *loc
	changed := false

	if loc.Continuous(today) {
		// a still-valid local streak only grows
		if rem.CurrentStreak > out.CurrentStreak {
			out.CurrentStreak = rem.CurrentStreak
			changed = true
		}
	} else if rem.CurrentStreak != out.CurrentStreak {
		// stale local streak, remote truth wins
		out.CurrentStreak = rem.CurrentStreak
		changed = true
	}
	if rem.LongestStreak > out.LongestStreak {
		out.LongestStreak = rem.LongestStreak
		changed = true
	}
	if rem.LastActivityDate.After(out.LastActivityDate) {
		out.LastActivityDate = rem.LastActivityDate
		changed = true
	}
	return &out, changed
}
