package ledger

import (
	"sort"
	"time"

	"loot-tracker/internal/loot"
)

// Entry is the running tally for one canonical item name.
type Entry struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Amount    uint64      `json:"amount"`
	UnitPrice loot.Silver `json:"unit_price"`
	Hour      uint8       `json:"hour"`
	Minute    uint8       `json:"minute"`
}

func (e Entry) Value() loot.Silver {
	return e.UnitPrice.Times(e.Amount)
}

// Snapshot is a point-in-time copy of the ledger keyed by canonical name.
type Snapshot map[string]Entry

func (s Snapshot) Total() loot.Silver {
	var total loot.Silver
	for _, e := range s {
		total += e.Value()
	}
	return total
}

// Sorted returns the entries by descending value, then by name.
func (s Snapshot) Sorted() []Entry {
	out := make([]Entry, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := out[i].Value(), out[j].Value()
		if vi != vj {
			return vi > vj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// HistoryEntry records one newly observed event as it was integrated.
type HistoryEntry struct {
	loot.Event
	At time.Time `json:"at"`
}
