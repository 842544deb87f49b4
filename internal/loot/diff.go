package loot

import (
	"strconv"
	"strings"
)

// Diff returns the suffix of next that is not already represented by prev.
//
// Both slices are consecutive reads of the same scrolling log, so the
// snapshots overlap. Diff walks them with independent cursors to find where
// they line up again and reports what follows. When a run of matches breaks,
// the next cursor steps back onto the last matched event and the first such
// rollback point is kept as the restart index in case no run reaches the end.
// Events whose amount lost trailing digits to OCR still match (see SameEvent).
func Diff(prev, next []Event) []Event {
	if len(next) == 0 {
		return nil
	}
	if len(prev) == 0 {
		return clone(next)
	}

	oldIdx, newIdx := 0, 0
	matching := false
	fallback := -1
	for oldIdx < len(prev) && newIdx < len(next) {
		if SameEvent(prev[oldIdx], next[newIdx]) {
			oldIdx++
			newIdx++
			matching = true
			continue
		}
		if matching {
			matching = false
			newIdx--
			// later breaks keep the first rollback point
			if fallback < 0 {
				fallback = newIdx
			}
		}
		oldIdx++
	}

	if !matching && fallback >= 0 {
		newIdx = fallback
	}
	return clone(next[newIdx:])
}

// SameEvent reports whether next is a re-read of prev: same name and clock,
// and either the same amount or an amount that is a truncated read of it.
func SameEvent(prev, next Event) bool {
	if prev.Name != next.Name || prev.Hour != next.Hour || prev.Minute != next.Minute {
		return false
	}
	return prev.Amount == next.Amount || IsTruncatedRead(prev.Amount, next.Amount)
}

// IsTruncatedRead reports whether read's digits are a proper prefix of
// expected's digits, the usual signature of OCR dropping trailing digits.
func IsTruncatedRead(expected, read uint64) bool {
	e := strconv.FormatUint(expected, 10)
	r := strconv.FormatUint(read, 10)
	return len(r) < len(e) && strings.HasPrefix(e, r)
}

func clone(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
