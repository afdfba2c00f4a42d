package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/local"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/logging"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/models"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/notify"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// State is the orchestrator's coarse lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSyncing
	StateRestoring
	StatePendingOffline
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateRestoring:
		return "restoring"
	case StatePendingOffline:
		return "pending_offline"
	default:
		return "unknown"
	}
}

// ErrPassInFlight is returned when a pass is requested while another one is
// running. Requests are rejected, not queued; callers rely on the next
// trigger.
var ErrPassInFlight = errors.New("sync pass already in flight")

// KindStats counts rows moved for one entity kind within a pass.
type KindStats struct {
	Pushed int
	Pulled int
	Failed int
}

// Stats aggregates per-kind counters for one pass.
type Stats map[models.Kind]KindStats

// Result is what every pass returns. Row-level failures are collected here
// rather than aborting the pass; Success means none occurred.
type Result struct {
	Success  bool
	Restored bool
	Stats    Stats
	Errors   []error
}

// OfflineHint is the best-effort connectivity probe. It only defers retries
// of an already-pending pass; the first attempt always goes out regardless,
// because the probe has known false positives on cold start.
type OfflineHint interface {
	IsLikelyOffline(ctx context.Context) bool
}

// Orchestrator owns the pass lifecycle: it decides when to push and when to
// pull, runs the per-kind strategies, enforces the single in-flight guard,
// and persists the pending-offline marker across restarts.
type Orchestrator struct {
	d          *deps
	strategies []Strategy
	ids        identity.Provider
	bus        *notify.Bus
	hint       OfflineHint
	log        logging.Logger
	onRevoked  func()

	state atomic.Int32

	mu     stdsync.Mutex
	cancel context.CancelFunc
	unsubs []func()
}

// OrchestratorOption customizes Orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithBus connects the debounced change bus; local writes then schedule
// passes automatically after Init.
func WithBus(bus *notify.Bus) OrchestratorOption {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithOfflineHint installs the connectivity probe used to defer retries.
func WithOfflineHint(h OfflineHint) OrchestratorOption {
	return func(o *Orchestrator) { o.hint = h }
}

// WithRetryPolicy overrides the transient-failure backoff.
func WithRetryPolicy(base time.Duration, maxAttempts uint64) OrchestratorOption {
	return func(o *Orchestrator) { o.d.retry = retryPolicy{base: base, maxAttempts: maxAttempts} }
}

// WithRestoreWindow overrides how many recent append-only rows a restore
// pulls per kind.
func WithRestoreWindow(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.d.window = n
		}
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.d.now = now }
}

// WithSignOutHook installs the callback run when the backend reports the
// owning identity gone.
func WithSignOutHook(fn func()) OrchestratorOption {
	return func(o *Orchestrator) { o.onRevoked = fn }
}

// New constructs an Orchestrator. Call Init to arm the automatic triggers,
// or drive it manually through Sync/Restore.
func New(store *local.Store, backend Backend, ids identity.Provider, log logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		d: &deps{
			store:   store,
			backend: backend,
			log:     log,
			retry:   defaultRetryPolicy(),
			window:  defaultRestoreWindow,
			now:     time.Now,
		},
		ids: ids,
		log: log,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.strategies = newStrategies(o.d)
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Init arms the automatic triggers: change-bus dispatches, identity changes,
// and a leftover pending-offline marker from a previous run. Pair with
// Dispose.
func (o *Orchestrator) Init(ctx context.Context) error {
	if o.bus != nil {
		tables := models.KindNames(models.AllKinds())
		unsub := o.bus.Subscribe(tables, func([]string) {
			o.trigger(context.Background(), "change notification")
		})
		o.unsubs = append(o.unsubs, unsub)
	}

	remove := o.ids.OnChange(func(who identity.Identity, err error) {
		if err != nil {
			o.cancelRunning()
			return
		}
		o.trigger(context.Background(), "identity change")
	})
	o.unsubs = append(o.unsubs, remove)

	// a pass deferred by a previous run retries on startup
	if _, pending, err := o.d.store.Meta.Get(ctx, local.MetaPendingSync); err == nil && pending {
		o.state.Store(int32(StatePendingOffline))
		o.trigger(ctx, "pending marker")
	}
	return nil
}

// Dispose removes the triggers and cancels a running pass.
func (o *Orchestrator) Dispose() {
	for _, unsub := range o.unsubs {
		unsub()
	}
	o.unsubs = nil
	o.cancelRunning()
}

// trigger starts a best-effort background pass. A rejected start is normal
// (another pass is running); retries of a pending pass are skipped while the
// probe says offline.
func (o *Orchestrator) trigger(ctx context.Context, reason string) {
	if o.State() == StatePendingOffline && o.hint != nil && o.hint.IsLikelyOffline(ctx) {
		o.log.Debug(ctx, "sync retry deferred, likely offline", "reason", reason)
		return
	}
	go func() {
		res, err := o.Sync(context.Background())
		switch {
		case errors.Is(err, ErrPassInFlight):
		case err != nil:
			o.log.Warn(context.Background(), "sync pass not started", "reason", reason, "error", err)
		case !res.Success:
			o.log.Warn(context.Background(), "sync pass finished with failures",
				"reason", reason, "failures", len(res.Errors))
		}
	}()
}

// Sync runs one pass for the signed-in identity. The first pass after a
// fresh authentication runs as a restore; later ones push dirty rows only.
// Returns ErrPassInFlight when another pass is running.
func (o *Orchestrator) Sync(ctx context.Context) (*Result, error) {
	who, err := o.ids.Current()
	if err != nil {
		return nil, err
	}
	return o.run(ctx, who, o.needsRestore(ctx, who))
}

// Restore forces a restore pass regardless of what earlier passes recorded.
func (o *Orchestrator) Restore(ctx context.Context) (*Result, error) {
	who, err := o.ids.Current()
	if err != nil {
		return nil, err
	}
	return o.run(ctx, who, true)
}

func (o *Orchestrator) run(ctx context.Context, who identity.Identity, restore bool) (*Result, error) {
	// the local store must be usable before touching the network; the remote
	// side is deliberately not pre-checked
	if err := o.d.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("local store unavailable: %w", err)
	}

	target := StateSyncing
	if restore {
		target = StateRestoring
	}
	if !o.begin(target) {
		return nil, ErrPassInFlight
	}

	passCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	res := o.runPass(passCtx, who, restore)
	// bookkeeping runs on the outer context so a cancelled pass still
	// records its outcome
	o.finish(ctx, who, res)
	return res, nil
}

// begin is the single in-flight guard: exactly one pass may hold a
// Syncing/Restoring state at a time.
func (o *Orchestrator) begin(target State) bool {
	for _, from := range []State{StateIdle, StatePendingOffline} {
		if o.state.CompareAndSwap(int32(from), int32(target)) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) finish(ctx context.Context, who identity.Identity, res *Result) {
	for _, err := range res.Errors {
		if syncerr.Classify(err) == syncerr.ClassIdentityRevoked {
			o.log.Warn(ctx, "owner identity revoked remotely, signing out", "owner", who.ID)
			if o.onRevoked != nil {
				o.onRevoked()
			}
			break
		}
	}

	transient := false
	for _, err := range res.Errors {
		if syncerr.Retryable(err) {
			transient = true
			break
		}
	}

	if transient {
		// marker survives process death so the next launch retries even
		// though this pass's in-memory state is gone
		if err := o.d.store.Meta.Set(ctx, local.MetaPendingSync, "1"); err != nil {
			o.log.Error(ctx, "persist pending marker", "error", err)
		}
		o.state.Store(int32(StatePendingOffline))
		return
	}

	if err := o.d.store.Meta.Delete(ctx, local.MetaPendingSync); err != nil {
		o.log.Error(ctx, "clear pending marker", "error", err)
	}
	if res.Success {
		ms := strconv.FormatInt(o.d.now().UnixMilli(), 10)
		if err := o.d.store.Meta.Set(ctx, local.MetaLastSyncAt, ms); err != nil {
			o.log.Error(ctx, "record last sync time", "error", err)
		}
	}
	o.state.Store(int32(StateIdle))
}

// needsRestore reports whether this identity still needs its once-per-auth
// restore pass.
func (o *Orchestrator) needsRestore(ctx context.Context, who identity.Identity) bool {
	v, ok, err := o.d.store.Meta.Get(ctx, local.MetaRestoredOwner)
	if err != nil {
		o.log.Warn(ctx, "read restore marker", "error", err)
		return false
	}
	return !ok || v != who.ID
}

func (o *Orchestrator) runPass(ctx context.Context, who identity.Identity, restore bool) *Result {
	res := &Result{Stats: make(Stats), Restored: restore}
	start := o.d.now()

	if restore {
		o.runRestore(ctx, who, res)
	} else {
		o.runPush(ctx, who, res)
	}

	res.Success = len(res.Errors) == 0
	o.log.Info(ctx, "sync pass finished",
		"owner", who.ID,
		"restore", restore,
		"success", res.Success,
		"failures", len(res.Errors),
		"elapsed", o.d.now().Sub(start))
	return res
}

// runRestore pulls remote truth first, then pushes whatever is still dirty,
// so locally newer fields replicate out (they were never overwritten by the
// pull). A remote side with no profile at all means a fresh backup: restore
// degenerates into marking everything dirty and pushing.
func (o *Orchestrator) runRestore(ctx context.Context, who identity.Identity, res *Result) {
	_, err := o.d.backend.SelectProfile(ctx, who.ID)
	switch {
	case errors.Is(err, syncerr.ErrNotFound):
		o.log.Info(ctx, "no remote data for identity, running initial backup", "owner", who.ID)
		if err := o.markAllDirty(ctx, who); err != nil {
			res.Errors = append(res.Errors, err)
			return
		}
	case err != nil:
		res.Errors = append(res.Errors, err)
		return
	default:
		for _, st := range o.strategies {
			if ctx.Err() != nil {
				res.Errors = append(res.Errors, ctx.Err())
				return
			}
			pulled, errs := st.Pull(ctx, who)
			ks := res.Stats[st.Kind()]
			ks.Pulled += pulled
			ks.Failed += len(errs)
			res.Stats[st.Kind()] = ks
			res.Errors = append(res.Errors, errs...)
		}
	}

	o.runPush(ctx, who, res)

	if len(res.Errors) == 0 {
		if err := o.d.store.Meta.Set(ctx, local.MetaRestoredOwner, who.ID); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
}

func (o *Orchestrator) runPush(ctx context.Context, who identity.Identity, res *Result) {
	for _, st := range o.strategies {
		// cancellation is cooperative, checked between kinds so completed
		// kinds stay clean and the remainder resumes next pass
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err())
			return
		}
		pushed, errs := st.Push(ctx, who)
		ks := res.Stats[st.Kind()]
		ks.Pushed += pushed
		ks.Failed += len(errs)
		res.Stats[st.Kind()] = ks
		res.Errors = append(res.Errors, errs...)
	}
}

func (o *Orchestrator) markAllDirty(ctx context.Context, who identity.Identity) error {
	s := o.d.store
	for _, mark := range []func(context.Context, string) error{
		s.Profiles.MarkAllDirty,
		s.Streaks.MarkAllDirty,
		s.Subscriptions.MarkAllDirty,
		s.Settings.MarkAllDirty,
		s.FoodLogs.MarkAllDirty,
		s.Weights.MarkAllDirty,
		s.Exercises.MarkAllDirty,
	} {
		if err := mark(ctx, who.ID); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) cancelRunning() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}
