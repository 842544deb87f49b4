package reorder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferRestoresOrder(t *testing.T) {
	b := New[uint64]()
	var delivered []uint64

	for _, idx := range []uint64{2, 0, 1, 3} {
		delivered = append(delivered, b.Push(idx, idx)...)
	}

	assert.Equal(t, []uint64{0, 1, 2, 3}, delivered)
	assert.Equal(t, uint64(4), b.Next())
	assert.Zero(t, b.Pending())
}

func TestBufferHoldsBehindGap(t *testing.T) {
	b := New[string]()

	assert.Empty(t, b.Push(1, "b"))
	assert.Empty(t, b.Push(2, "c"))
	assert.Equal(t, 2, b.Pending())

	assert.Equal(t, []string{"a", "b", "c"}, b.Push(0, "a"))
	assert.Empty(t, b.Push(0, "again"))
}

func TestBufferShuffled(t *testing.T) {
	const n = 200
	order := rand.New(rand.NewSource(1)).Perm(n)

	b := New[int]()
	var delivered []int
	for _, idx := range order {
		delivered = append(delivered, b.Push(uint64(idx), idx)...)
	}

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, delivered)
}
