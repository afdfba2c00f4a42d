// Package notify implements the debounced change bus between the local store
// and the sync engine. Writers report which tables they touched; listeners
// receive at most one callback per debounce window with the merged table set.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/logging"
)

// DefaultDebounce is the quiet window merged writes share.
const DefaultDebounce = 500 * time.Millisecond

// Listener receives the set of tables changed since the last dispatch.
// A nil set means the scope of the change is unknown and everything may
// have changed.
type Listener func(tables []string)

type subscription struct {
	id     int
	tables map[string]struct{} // nil means all tables
	fn     Listener
}

// Bus coalesces change reports. A burst of writes inside one debounce window
// produces a single dispatch carrying the union of the touched tables.
type Bus struct {
	mu          sync.Mutex
	debounce    time.Duration
	log         logging.Logger
	subs        []*subscription
	nextID      int
	pending     map[string]struct{}
	all         bool
	timer       *time.Timer
	dispatching bool
	redispatch  bool
	closed      bool
	wg          sync.WaitGroup
}

// NewBus returns a Bus with the given debounce window. A non-positive window
// falls back to DefaultDebounce.
func NewBus(debounce time.Duration, log logging.Logger) *Bus {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Bus{
		debounce: debounce,
		log:      log,
		pending:  make(map[string]struct{}),
	}
}

// Subscribe registers fn for changes to any of tables. An empty tables list
// subscribes to everything. The returned function removes the subscription.
func (b *Bus) Subscribe(tables []string, fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{id: b.nextID, fn: fn}
	b.nextID++
	if len(tables) > 0 {
		sub.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			sub.tables[t] = struct{}{}
		}
	}
	b.subs = append(b.subs, sub)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == sub.id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify reports that tables changed. Calling it with no tables means the
// writer cannot name what it touched; the dispatch then goes to every
// subscriber with a nil table set. The dispatch fires after the debounce
// window elapses with no further reports. Reports arriving while a dispatch
// is running are queued for the next window, never lost.
func (b *Bus) Notify(tables ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if len(tables) == 0 {
		b.all = true
	}
	for _, t := range tables {
		b.pending[t] = struct{}{}
	}
	if b.dispatching {
		b.redispatch = true
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.fire)
	} else {
		b.timer.Reset(b.debounce)
	}
}

func (b *Bus) fire() {
	b.mu.Lock()
	if b.closed || (!b.all && len(b.pending) == 0) {
		b.mu.Unlock()
		return
	}
	all := b.all
	var tables []string
	if !all {
		tables = make([]string, 0, len(b.pending))
		for t := range b.pending {
			tables = append(tables, t)
		}
	}
	b.all = false
	b.pending = make(map[string]struct{})
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.dispatching = true
	b.wg.Add(1)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.dispatching = false
		again := b.redispatch
		b.redispatch = false
		if again && !b.closed && b.timer != nil {
			b.timer.Reset(b.debounce)
		}
		b.mu.Unlock()
		b.wg.Done()
	}()

	for _, sub := range subs {
		// a broad report matches everyone; a nil table set tells the
		// listener the change scope is unknown
		matched := all || sub.tables == nil
		if !matched {
			for _, t := range tables {
				if _, ok := sub.tables[t]; ok {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		b.deliver(sub, tables)
	}
}

// deliver isolates listener panics so one bad listener cannot stall the rest.
func (b *Bus) deliver(sub *subscription, tables []string) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error(context.Background(), "change listener panicked", "panic", p)
		}
	}()
	sub.fn(tables)
}

// Close stops future dispatches and waits for a running one to finish.
// Reports arriving after Close are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.wg.Wait()
}
