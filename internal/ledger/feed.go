package ledger

import (
	"context"
	"sync"
)

// feed fans snapshots out to subscribers. Each subscriber holds at most one
// pending snapshot; a slow reader only ever sees the latest one.
type feed struct {
	mu   sync.Mutex
	subs map[chan Snapshot]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[chan Snapshot]struct{})}
}

func (f *feed) subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

func (f *feed) publish(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		snap := s.clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		// replace the stale pending snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
