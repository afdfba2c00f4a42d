package sync

import (
	"context"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/local"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/logging"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
)

// Strategy reconciles one entity kind. Push uploads dirty local rows; Pull
// adopts remote rows missing locally. Both return how many rows moved plus
// the per-row failures collected along the way; a failed row never aborts
// the rest of the kind.
type Strategy interface {
	Kind() models.Kind
	Push(ctx context.Context, who identity.Identity) (int, []error)
	Pull(ctx context.Context, who identity.Identity) (int, []error)
}

// deps is the shared wiring every strategy closes over.
type deps struct {
	store   *local.Store
	backend Backend
	log     logging.Logger
	retry   retryPolicy
	window  int
	now     func() time.Time
}

// defaultRestoreWindow bounds how many recent append-only rows one restore
// pulls per kind.
const defaultRestoreWindow = 100

func newStrategies(d *deps) []Strategy {
	return []Strategy{
		&profileStrategy{d},
		&streakStrategy{d},
		&subscriptionStrategy{d},
		&settingsStrategy{d},
		&foodLogStrategy{d},
		&weightStrategy{d},
		&exerciseStrategy{d},
	}
}
