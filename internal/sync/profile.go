package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

type profileStrategy struct {
	*deps
}

func (s *profileStrategy) Kind() models.Kind { return models.KindProfile }

// Push uploads dirty profiles. A singleton push resolves the remote
// counterpart first, then inserts or updates. An insert that hits the unique
// email constraint means the account was recreated under a new identity id;
// the existing remote row is adopted by updating it through the email lookup
// rather than duplicated.
func (s *profileStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Profiles.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty profiles: %w", err)}
	}

	var pushed int
	var errs []error
	for _, p := range dirty {
		if p.OwnerID != who.ID {
			continue
		}
		if err := s.pushOne(ctx, p); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.Profiles.MarkSynced(ctx, p.OwnerID); err != nil {
			errs = append(errs, fmt.Errorf("mark profile synced: %w", err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

func (s *profileStrategy) pushOne(ctx context.Context, p *models.UserProfile) error {
	row := toRemoteProfile(p)

	return s.retry.do(ctx, func(ctx context.Context) error {
		_, err := s.backend.SelectProfile(ctx, p.OwnerID)
		switch {
		case err == nil:
			return s.backend.UpdateProfile(ctx, row)
		case errors.Is(err, syncerr.ErrNotFound):
			insErr := s.backend.InsertProfile(ctx, row)
			if errors.Is(insErr, syncerr.ErrConflict) {
				return s.adoptByEmail(ctx, p.Email, row)
			}
			return insErr
		default:
			return err
		}
	})
}

// adoptByEmail resolves an insert conflict by rewriting the remote row found
// under the profile's email, moving it to the current identity id. Exactly
// one remote row per account survives.
func (s *profileStrategy) adoptByEmail(ctx context.Context, email string, row *remote.ProfileRow) error {
	if _, err := s.backend.SelectProfileByEmail(ctx, email); err != nil {
		return fmt.Errorf("resolve profile conflict: %w", err)
	}
	s.log.Info(ctx, "adopting remote profile after identity reissuance", "owner", row.OwnerID)
	return s.backend.UpdateProfileByEmail(ctx, email, row)
}

// Pull fills local gaps from the remote profile. A present local value is
// never overwritten; a missing local row is adopted wholesale and marked
// clean. A dirty local row keeps its dirty flag so the merged result is
// pushed back.
func (s *profileStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	var row *remote.ProfileRow
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.backend.SelectProfile(ctx, who.ID)
		return err
	})
	if errors.Is(err, syncerr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{err}
	}
	rem := fromRemoteProfile(row)

	loc, err := s.store.Profiles.Get(ctx, who.ID)
	if errors.Is(err, syncerr.ErrNotFound) {
		if err := s.store.Profiles.UpsertFromRemote(ctx, rem); err != nil {
			return 0, []error{fmt.Errorf("adopt remote profile: %w", err)}
		}
		return 1, nil
	}
	if err != nil {
		return 0, []error{fmt.Errorf("load local profile: %w", err)}
	}

	merged, changed := mergeProfile(loc, rem)
	if !changed {
		return 0, nil
	}
	if loc.Dirty() {
		err = s.store.Profiles.Save(ctx, merged)
	} else {
		err = s.store.Profiles.UpsertFromRemote(ctx, merged)
	}
	if err != nil {
		return 0, []error{fmt.Errorf("merge remote profile: %w", err)}
	}
	return 1, nil
}

// mergeProfile copies remote values into fields the local row has no value
// for. Gap-fill only.
func mergeProfile(loc, rem *models.UserProfile) (*models.UserProfile, bool) {
	out := *loc
	changed := false

	fillStr := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fillStr(&out.Email, rem.Email)
	fillStr(&out.FirstName, rem.FirstName)
	fillStr(&out.LastName, rem.LastName)
	fillStr(&out.Gender, rem.Gender)
	fillStr(&out.ActivityLevel, rem.ActivityLevel)
	fillStr(&out.WeightGoal, rem.WeightGoal)

	if out.Age == nil && rem.Age != nil {
		out.Age, changed = rem.Age, true
	}
	if out.HeightCm == nil && rem.HeightCm != nil {
		out.HeightCm, changed = rem.HeightCm, true
	}
	if out.WeightKg == nil && rem.WeightKg != nil {
		out.WeightKg, changed = rem.WeightKg, true
	}
	if out.TargetWeightKg == nil && rem.TargetWeightKg != nil {
		out.TargetWeightKg, changed = rem.TargetWeightKg, true
	}
	if out.DailyCalorieGoal == nil && rem.DailyCalorieGoal != nil {
		out.DailyCalorieGoal, changed = rem.DailyCalorieGoal, true
	}
	if out.CheatDayOfWeek == nil && rem.CheatDayOfWeek != nil {
		out.CheatDayOfWeek, changed = rem.CheatDayOfWeek, true
	}
	if len(out.DietaryPreferences) == 0 && len(rem.DietaryPreferences) > 0 {
		out.DietaryPreferences, changed = rem.DietaryPreferences, true
	}

	// booleans have no local "absent" state, local wins unconditionally
	return &out, changed
}
