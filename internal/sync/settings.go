package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

type settingsStrategy struct {
	*deps
}

func (s *settingsStrategy) Kind() models.Kind { return models.KindSettings }

// Push uploads the dirty settings document via upsert-on-owner.
func (s *settingsStrategy) Push(ctx context.Context, who identity.Identity) (int, []error) {
	dirty, err := s.store.Settings.GetUnsynced(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("load dirty settings: %w", err)}
	}

	var pushed int
	var errs []error
	for _, row := range dirty {
		if row.OwnerID != who.ID {
			continue
		}
		rem := toRemoteSettings(row)
		err := s.retry.do(ctx, func(ctx context.Context) error {
			return s.backend.UpsertSettings(ctx, rem)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.Settings.MarkSynced(ctx, row.OwnerID); err != nil {
			errs = append(errs, fmt.Errorf("mark settings synced: %w", err))
			continue
		}
		pushed++
	}
	return pushed, errs
}

// Pull adopts the remote settings document only when the local one is absent
// or empty. The document is opaque, so no field-level merge is possible; a
// present local document wins and the push path replicates it.
func (s *settingsStrategy) Pull(ctx context.Context, who identity.Identity) (int, []error) {
	var row *remote.SettingsRow
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.backend.SelectSettings(ctx, who.ID)
		return err
	})
	if errors.Is(err, syncerr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{err}
	}

	loc, err := s.store.Settings.Get(ctx, who.ID)
	switch {
	case errors.Is(err, syncerr.ErrNotFound):
	case err != nil:
		return 0, []error{fmt.Errorf("load local settings: %w", err)}
	case !emptyDocument(loc.Data):
		return 0, nil
	}

	if err := s.store.Settings.UpsertFromRemote(ctx, fromRemoteSettings(row)); err != nil {
		return 0, []error{fmt.Errorf("adopt remote settings: %w", err)}
	}
	return 1, nil
}

func emptyDocument(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null"))
}
