package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ev(name string, amount uint64, hour, minute uint8) Event {
	return Event{Name: name, Amount: amount, Hour: hour, Minute: minute}
}

func TestDiffEmptyInputs(t *testing.T) {
	next := []Event{ev("Black Stone", 7, 16, 8)}

	assert.Empty(t, Diff(next, nil))
	assert.Equal(t, next, Diff(nil, next))
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	snap := []Event{
		ev("Black Stone", 7, 16, 8),
		ev("Old Moon Ore", 2, 16, 9),
		ev("Black Stone", 7, 16, 8),
	}
	assert.Empty(t, Diff(snap, snap))
}

func TestDiffReportsAppendedTail(t *testing.T) {
	prev := []Event{ev("Black Stone", 7, 16, 8)}
	next := []Event{ev("Black Stone", 7, 16, 8), ev("Old Moon Ore", 2, 16, 9)}

	assert.Equal(t, []Event{ev("Old Moon Ore", 2, 16, 9)}, Diff(prev, next))
}

func TestDiffScrolledWindow(t *testing.T) {
	prev := []Event{
		ev("A", 1, 10, 0),
		ev("B", 2, 10, 1),
		ev("C", 3, 10, 2),
	}
	next := []Event{
		ev("B", 2, 10, 1),
		ev("C", 3, 10, 2),
		ev("D", 4, 10, 3),
	}
	assert.Equal(t, []Event{ev("D", 4, 10, 3)}, Diff(prev, next))
}

func TestDiffTruncatedAmountIsNotNew(t *testing.T) {
	prev := []Event{ev("Silver", 191, 1, 1)}
	next := []Event{ev("Silver", 1, 1, 1)}
	assert.Empty(t, Diff(prev, next))
}

func TestDiffLargerAmountIsNew(t *testing.T) {
	prev := []Event{ev("Silver", 191, 1, 1)}
	next := []Event{ev("Silver", 250, 1, 1)}
	assert.Equal(t, next, Diff(prev, next))
}

func TestDiffRollbackOnBrokenRun(t *testing.T) {
	prev := []Event{
		ev("Swamp Leaves", 3, 0, 0),
		ev("Silver", 116, 0, 0),
		ev("Swamp Leaves", 3, 0, 0),
	}
	next := []Event{
		ev("Swamp Leaves", 3, 0, 0),
		ev("Silver", 92, 0, 0),
		ev("Swamp Leaves", 1, 0, 0),
	}

	got := Diff(prev, next)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "Silver", got[0].Name)
		assert.Equal(t, uint64(92), got[0].Amount)
	}
}

func TestDiffFallbackWhenRunNeverFinishes(t *testing.T) {
	prev := []Event{
		ev("A", 1, 0, 0),
		ev("B", 2, 0, 0),
		ev("C", 3, 0, 0),
	}
	next := []Event{
		ev("A", 1, 0, 0),
		ev("X", 9, 0, 0),
	}
	// A matches, X breaks the run, nothing matches afterwards: restart at A.
	assert.Equal(t, next, Diff(prev, next))
}

func TestDiffDoesNotAliasInput(t *testing.T) {
	next := []Event{ev("A", 1, 0, 0)}
	got := Diff(nil, next)
	got[0].Amount = 99
	assert.Equal(t, uint64(1), next[0].Amount)
}

func TestIsTruncatedRead(t *testing.T) {
	assert.True(t, IsTruncatedRead(191, 1))
	assert.True(t, IsTruncatedRead(191, 19))
	assert.False(t, IsTruncatedRead(191, 191))
	assert.False(t, IsTruncatedRead(191, 91))
	assert.False(t, IsTruncatedRead(1, 191))
}
