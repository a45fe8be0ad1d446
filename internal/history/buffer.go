// Package history provides a fixed-capacity ring buffer addressed relative
// to the most recent write.
package history

import "iter"

// Buffer is a fixed-size circular buffer. All slots are pre-filled with a
// default value, so any offset can be read at any time.
//
// Offsets are relative to the next-write cursor: Item(-1) is the most recent
// value, Item(-2) the one before it, and Item(0) the oldest physical slot.
// Buffer is not safe for concurrent use; the engine owns every instance.
type Buffer[T any] struct {
	data []T
	next int
	size int
}

// New creates a buffer holding capacity slots set to def.
// It panics if capacity is not positive.
func New[T any](capacity int, def T) *Buffer[T] {
	if capacity <= 0 {
		panic("history: capacity must be positive")
	}
	data := make([]T, capacity)
	for i := range data {
		data[i] = def
	}
	return &Buffer[T]{data: data}
}

// Add writes v into the next slot and advances the cursor.
func (b *Buffer[T]) Add(v T) {
	b.data[b.next] = v
	b.next = (b.next + 1) % len(b.data)
	if b.size < len(b.data) {
		b.size++
	}
}

// Last returns the most recently added value.
func (b *Buffer[T]) Last() T {
	return b.Item(-1)
}

// Item returns the slot at offset from the next-write cursor. Any offset is
// valid; it wraps modulo the capacity.
func (b *Buffer[T]) Item(offset int) T {
	return b.data[b.index(offset)]
}

func (b *Buffer[T]) index(offset int) int {
	c := b.next + offset
	if c < 0 {
		// Same result as adding capacity until non-negative.
		c %= len(b.data)
		c += len(b.data)
	}
	return c % len(b.data)
}

// Size returns the number of live entries.
func (b *Buffer[T]) Size() int {
	return b.size
}

// Cap returns the fixed physical capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// Remove forgets the oldest live entry. Slot contents are kept, so Last
// still returns the most recent value.
func (b *Buffer[T]) Remove() {
	if b.size > 0 {
		b.size--
	}
}

// All yields the live entries from oldest to newest.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := -b.size; i < 0; i++ {
			if !yield(b.Item(i)) {
				return
			}
		}
	}
}

// Values returns the live entries from oldest to newest.
func (b *Buffer[T]) Values() []T {
	out := make([]T, 0, b.size)
	for v := range b.All() {
		out = append(out, v)
	}
	return out
}

// Tail returns up to n most recent live entries, oldest first.
func (b *Buffer[T]) Tail(n int) []T {
	if n <= 0 || b.size == 0 {
		return nil
	}
	if n > b.size {
		n = b.size
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = b.Item(i - n)
	}
	return out
}

// Clone returns an independent shallow copy of the buffer.
func (b *Buffer[T]) Clone() *Buffer[T] {
	return b.CloneFunc(func(v T) T { return v })
}

// CloneFunc returns a copy of the buffer with every slot passed through cp,
// for element types that hold references.
func (b *Buffer[T]) CloneFunc(cp func(T) T) *Buffer[T] {
	data := make([]T, len(b.data))
	for i, v := range b.data {
		data[i] = cp(v)
	}
	return &Buffer[T]{data: data, next: b.next, size: b.size}
}
