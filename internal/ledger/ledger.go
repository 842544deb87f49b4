// Package ledger keeps the cumulative per-item tally for a session.
//
// A Ledger receives every parsed snapshot of the watched log, canonicalizes
// names against the items it already holds, keeps only events that the
// previous snapshot did not contain and books them. Entries only grow until
// Reset.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"loot-tracker/internal/catalog"
	"loot-tracker/internal/loot"
	"loot-tracker/pkg/core"
)

// IntegrateHook observes every event booked into an entry.
type IntegrateHook func(entry Entry, event loot.Event)

type Ledger struct {
	catalog catalog.Catalog
	log     core.Logger
	now     func() time.Time
	hook    IntegrateHook
	feed    *feed

	mu         sync.Mutex
	entries    map[string]Entry
	tracker    []loot.Event
	history    []HistoryEntry
	generation uint64
}

type Option func(*Ledger)

// WithIntegrateHook registers fn to run, outside the ledger lock, after each booked event.
func WithIntegrateHook(fn IntegrateHook) Option {
	return func(l *Ledger) { l.hook = fn }
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(cat catalog.Catalog, log core.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		catalog: cat,
		log:     log,
		now:     time.Now,
		feed:    newFeed(),
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ingest books the events of one recognized snapshot and returns how many
// of them were new. Names are canonicalized before diffing so that a
// garbled re-read of a known item aligns with the previous snapshot.
func (l *Ledger) Ingest(ctx context.Context, mode loot.Mode, events []loot.Event) int {
	if len(events) == 0 {
		// the drop panel emptied; whatever shows up next is new
		if mode == loot.DropLog {
			l.ClearTracker()
		}
		return 0
	}

	l.mu.Lock()
	keys := l.keysLocked()
	resolved := make([]loot.Event, len(events))
	for i, ev := range events {
		if name, ok := Resolve(ev.Name, keys); ok {
			ev.Name = name
		}
		resolved[i] = ev
	}

	fresh := loot.Diff(l.tracker, resolved)
	if len(fresh) == 0 {
		l.mu.Unlock()
		return 0
	}
	l.tracker = resolved
	gen := l.generation
	l.mu.Unlock()

	return l.integrate(ctx, gen, fresh)
}

// Integrate books events directly, bypassing the snapshot diff.
// Unknown names are priced through the catalog; events whose lookup fails
// are counted but not booked.
func (l *Ledger) Integrate(ctx context.Context, events []loot.Event) int {
	l.mu.Lock()
	gen := l.generation
	l.mu.Unlock()
	return l.integrate(ctx, gen, events)
}

func (l *Ledger) integrate(ctx context.Context, gen uint64, events []loot.Event) int {
	count := 0
	changed := false

	for _, ev := range events {
		l.mu.Lock()
		if l.generation != gen {
			l.mu.Unlock()
			break
		}
		count++
		l.history = append(l.history, HistoryEntry{Event: ev, At: l.now()})
		if name, ok := Resolve(ev.Name, l.keysLocked()); ok {
			ev.Name = name
		}
		if entry, ok := l.addLocked(ev); ok {
			changed = true
			l.mu.Unlock()
			l.notify(entry, ev)
			continue
		}
		l.mu.Unlock()

		// network lookup without holding the lock
		item, err := l.catalog.Lookup(ctx, ev.Name)
		if err != nil {
			l.log.Warn("Item lookup failed", "name", ev.Name, "error", err)
			continue
		}

		l.mu.Lock()
		if l.generation != gen {
			l.mu.Unlock()
			break
		}
		entry, ok := l.addLocked(ev)
		if !ok {
			entry = Entry{
				ID:        item.ID,
				Name:      ev.Name,
				Amount:    ev.Amount,
				UnitPrice: item.UnitPrice(),
				Hour:      ev.Hour,
				Minute:    ev.Minute,
			}
			l.entries[ev.Name] = entry
		}
		changed = true
		l.mu.Unlock()

		l.log.Debug("New ledger entry", "name", entry.Name, "id", entry.ID, "unit_price", entry.UnitPrice.String())
		l.notify(entry, ev)
	}

	if changed {
		l.feed.publish(l.Snapshot())
	}
	return count
}

func (l *Ledger) addLocked(ev loot.Event) (Entry, bool) {
	entry, ok := l.entries[ev.Name]
	if !ok {
		return Entry{}, false
	}
	entry.Amount += ev.Amount
	entry.Hour, entry.Minute = ev.Hour, ev.Minute
	l.entries[ev.Name] = entry
	return entry, true
}

func (l *Ledger) notify(entry Entry, ev loot.Event) {
	if l.hook != nil {
		l.hook(entry, ev)
	}
}

func (l *Ledger) keysLocked() []string {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearTracker forgets the last snapshot so the next one is diffed against nothing.
func (l *Ledger) ClearTracker() {
	l.mu.Lock()
	l.tracker = nil
	l.mu.Unlock()
}

// Reset clears entries, the diff tracker and history together.
// Integrations in flight when Reset runs are abandoned.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.entries = make(map[string]Entry)
	l.tracker = nil
	l.history = nil
	l.generation++
	l.mu.Unlock()

	l.feed.publish(Snapshot{})
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot(l.entries).clone()
}

func (l *Ledger) History() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}

// Subscribe returns a channel receiving the full snapshot after every change.
// The channel is closed once ctx is done.
func (l *Ledger) Subscribe(ctx context.Context) <-chan Snapshot {
	return l.feed.subscribe(ctx)
}
