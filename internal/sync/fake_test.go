package sync

import (
	"context"
	stdsync "sync"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// fakeBackend is an in-memory Backend with scriptable failures. Every method
// first consumes a queued failure for its operation name, if any.
type fakeBackend struct {
	mu stdsync.Mutex

	profiles  map[string]*remote.ProfileRow
	foodLogs  []*remote.FoodLogRow
	weights   []*remote.WeightRow
	exercises []*remote.ExerciseRow
	streaks   map[string]*remote.StreakRow
	subs      map[string]*remote.SubscriptionRow
	settings  map[string]*remote.SettingsRow

	failures map[string][]error
	calls    map[string]int

	block chan struct{} // when set, selectProfile parks here
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: make(map[string]*remote.ProfileRow),
		streaks:  make(map[string]*remote.StreakRow),
		subs:     make(map[string]*remote.SubscriptionRow),
		settings: make(map[string]*remote.SettingsRow),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) failNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// enter records the call and pops a scripted failure. Callers must not hold
// the mutex.
func (f *fakeBackend) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		err := q[0]
		f.failures[op] = q[1:]
		return err
	}
	return nil
}

func (f *fakeBackend) SelectProfile(ctx context.Context, ownerID string) (*remote.ProfileRow, error) {
	if f.block != nil {
		<-f.block
	}
	if err := f.enter("SelectProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[ownerID]
	if !ok {
		return nil, syncerr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) SelectProfileByEmail(ctx context.Context, email string) (*remote.ProfileRow, error) {
	if err := f.enter("SelectProfileByEmail"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, syncerr.ErrNotFound
}

func (f *fakeBackend) InsertProfile(ctx context.Context, p *remote.ProfileRow) error {
	if err := f.enter("InsertProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.OwnerID]; ok {
		return syncerr.ErrConflict
	}
	for _, existing := range f.profiles {
		if existing.Email == p.Email {
			return syncerr.ErrConflict
		}
	}
	cp := *p
	f.profiles[p.OwnerID] = &cp
	return nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, p *remote.ProfileRow) error {
	if err := f.enter("UpdateProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.OwnerID] = &cp
	return nil
}

func (f *fakeBackend) UpdateProfileByEmail(ctx context.Context, email string, p *remote.ProfileRow) error {
	if err := f.enter("UpdateProfileByEmail"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for owner, existing := range f.profiles {
		if existing.Email == email {
			delete(f.profiles, owner)
			cp := *p
			f.profiles[p.OwnerID] = &cp
			return nil
		}
	}
	return syncerr.ErrNotFound
}

func (f *fakeBackend) UpsertFoodLog(ctx context.Context, r *remote.FoodLogRow) error {
	if err := f.enter("UpsertFoodLog"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.foodLogs {
		if existing.OwnerID == r.OwnerID && existing.FoodName == r.FoodName &&
			existing.LoggedMinute().Equal(r.LoggedMinute()) {
			cp := *r
			f.foodLogs[i] = &cp
			return nil
		}
	}
	cp := *r
	f.foodLogs = append(f.foodLogs, &cp)
	return nil
}

func (f *fakeBackend) SelectRecentFoodLogs(ctx context.Context, ownerID string, limit int) ([]*remote.FoodLogRow, error) {
	if err := f.enter("SelectRecentFoodLogs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*remote.FoodLogRow
	for _, r := range f.foodLogs {
		if r.OwnerID == ownerID && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBackend) UpsertWeightEntry(ctx context.Context, r *remote.WeightRow) error {
	if err := f.enter("UpsertWeightEntry"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.weights {
		if existing.OwnerID == r.OwnerID && existing.RecordedMinute().Equal(r.RecordedMinute()) {
			cp := *r
			f.weights[i] = &cp
			return nil
		}
	}
	cp := *r
	f.weights = append(f.weights, &cp)
	return nil
}

func (f *fakeBackend) SelectRecentWeightEntries(ctx context.Context, ownerID string, limit int) ([]*remote.WeightRow, error) {
	if err := f.enter("SelectRecentWeightEntries"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*remote.WeightRow
	for _, r := range f.weights {
		if r.OwnerID == ownerID && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBackend) UpsertExerciseEntry(ctx context.Context, r *remote.ExerciseRow) error {
	if err := f.enter("UpsertExerciseEntry"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.exercises {
		if existing.OwnerID == r.OwnerID && existing.ExerciseName == r.ExerciseName &&
			existing.PerformedMinute().Equal(r.PerformedMinute()) {
			cp := *r
			f.exercises[i] = &cp
			return nil
		}
	}
	cp := *r
	f.exercises = append(f.exercises, &cp)
	return nil
}

func (f *fakeBackend) SelectRecentExerciseEntries(ctx context.Context, ownerID string, limit int) ([]*remote.ExerciseRow, error) {
	if err := f.enter("SelectRecentExerciseEntries"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*remote.ExerciseRow
	for _, r := range f.exercises {
		if r.OwnerID == ownerID && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBackend) SelectStreak(ctx context.Context, ownerID string) (*remote.StreakRow, error) {
	if err := f.enter("SelectStreak"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.streaks[ownerID]
	if !ok {
		return nil, syncerr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeBackend) UpsertStreak(ctx context.Context, s *remote.StreakRow) error {
	if err := f.enter("UpsertStreak"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.streaks[s.OwnerID] = &cp
	return nil
}

func (f *fakeBackend) SelectSubscription(ctx context.Context, ownerID string) (*remote.SubscriptionRow, error) {
	if err := f.enter("SelectSubscription"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[ownerID]
	if !ok {
		return nil, syncerr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeBackend) UpsertSubscription(ctx context.Context, s *remote.SubscriptionRow) error {
	if err := f.enter("UpsertSubscription"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.subs[s.OwnerID] = &cp
	return nil
}

func (f *fakeBackend) SelectSettings(ctx context.Context, ownerID string) (*remote.SettingsRow, error) {
	if err := f.enter("SelectSettings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[ownerID]
	if !ok {
		return nil, syncerr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeBackend) UpsertSettings(ctx context.Context, s *remote.SettingsRow) error {
	if err := f.enter("UpsertSettings"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.settings[s.OwnerID] = &cp
	return nil
}

var _ Backend = (*fakeBackend)(nil)
