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

type subscriptionStrategy struct {
	*deps
}

func (s *subscriptionStrategy) Kind() models.Kind { return models.KindSubscription }

// Push uploads the dirty subscription row via upsert-on-owner. A row with an
// unknown state is reported and skipped, never pushed.
func (s *subscriptionStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Subscriptions.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty subscriptions: %w", err)}
	}

	var pushed int
	var errs []error
	for _, row := range dirty {
		if row.OwnerID != who.ID {
			continue
		}
		if !row.Status.Valid() {
			errs = append(errs, fmt.Errorf("subscription state %q: %w", row.Status, syncerr.ErrValidation))
			continue
		}
		rem := toRemoteSubscription(row)
		err := s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertSubscription(ctx, rem)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.Subscriptions.MarkSynced(ctx, row.OwnerID); err != nil {
			errs = append(errs, fmt.Errorf("mark subscription synced: %w", err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

// Pull adopts the remote subscription. Status is remote-authoritative: the
// billing backend decides transitions, so the remote value overwrites local
// unconditionally. Platform and expiry only fill gaps.
func (s *subscriptionStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	var row *remote.SubscriptionRow
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.backend.SelectSubscription(ctx, who.ID)
		return err
	})
	if errors.Is(err, syncerr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{err}
	}
	rem := fromRemoteSubscription(row)

	loc, err := s.store.Subscriptions.Get(ctx, who.ID)
	if errors.Is(err, syncerr.ErrNotFound) {
		if err := s.store.Subscriptions.UpsertFromRemote(ctx, rem); err != nil {
			return 0, []error{fmt.Errorf("adopt remote subscription: %w", err)}
		}
		return 1, nil
	}
	if err != nil {
		return 0, []error{fmt.Errorf("load local subscription: %w", err)}
	}

	out := *loc
	changed := false
	if rem.Status.Valid() && rem.Status != out.Status {
		out.Status = rem.Status
		changed = true
	}
	if out.Platform == "" && rem.Platform != "" {
		out.Platform = rem.Platform
		changed = true
	}
	if out.ExpiresAt == nil && rem.ExpiresAt != nil {
		out.ExpiresAt = rem.ExpiresAt
		changed = true
	}
	if !changed {
		return 0, nil
	}
	if loc.Dirty() {
		err = s.store.Subscriptions.Save(ctx, &out)
	} else {
		err = s.store.Subscriptions.UpsertFromRemote(ctx, &out)
	}
	if err != nil {
		return 0, []error{fmt.Errorf("merge remote subscription: %w", err)}
	}
	return 1, nil
}
