// Package reorder restores sequence order to results that complete out of order.
package reorder

// Buffer releases values in strict index order starting at 0.
// It is owned by a single consumer and is not safe for concurrent use.
type Buffer[T any] struct {
	next    uint64
	pending map[uint64]T
}

func New[T any]() *Buffer[T] {
	return &Buffer[T]{pending: make(map[uint64]T)}
}

// Push records the value for index and returns every value that is now
// deliverable, in index order. Indices already delivered are ignored.
func (b *Buffer[T]) Push(index uint64, v T) []T {
	if index < b.next {
		return nil
	}
	if index > b.next {
		b.pending[index] = v
		return nil
	}

	out := []T{v}
	b.next++
	for {
		pv, ok := b.pending[b.next]
		if !ok {
			break
		}
		delete(b.pending, b.next)
		out = append(out, pv)
		b.next++
	}
	return out
}

// Next is the index the buffer is waiting for.
func (b *Buffer[T]) Next() uint64 {
	return b.next
}

// Pending counts values held back behind a gap.
func (b *Buffer[T]) Pending() int {
	return len(b.pending)
}
