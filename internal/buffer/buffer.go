// buffer.go - Fixed-capacity bounded buffers for the review pipeline.
//
// Every value that flows through the privacy transform lives in a Buffer:
// a container allocated once at a declared capacity, with an explicit
// length and a saturating append. Overflow is a silent truncation policy,
// not an error.

package buffer

// Buffer is a fixed-capacity ordered container with an explicit length.
// It never grows or reallocates after construction. Positions at or
// beyond the length read as the zero value, which is also how they are
// fed to downstream hashes.
type Buffer[T any] struct {
	slots []T
	n     int
}

// New allocates a fresh buffer with the given capacity and length zero.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer[T]{slots: make([]T, capacity)}
}

// Append stores one element if there is room. At capacity it is a
// silent no-op: the element is dropped and the length is unchanged.
func (b *Buffer[T]) Append(v T) {
	if b.n >= len(b.slots) {
		return
	}
	b.slots[b.n] = v
	b.n++
}

// Get returns the element at position i. For i at or beyond the length
// (including positions past the capacity) it returns the zero value.
func (b *Buffer[T]) Get(i int) T {
	var zero T
	if i < 0 || i >= b.n {
		return zero
	}
	return b.slots[i]
}

// Len returns the number of elements appended so far.
func (b *Buffer[T]) Len() int {
	return b.n
}

// Cap returns the declared capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

// Slice returns a copy of the stored elements, length Len().
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.n)
	copy(out, b.slots[:b.n])
	return out
}

// Bytes is the byte specialization used throughout the pipeline.
type Bytes = Buffer[byte]

// NewBytes allocates a byte buffer with the given capacity and appends
// raw into it, truncating silently past the capacity.
func NewBytes(capacity int, raw []byte) *Bytes {
	b := New[byte](capacity)
	for _, c := range raw {
		b.Append(c)
	}
	return b
}

// String renders the stored bytes, length Len(). Padding is not included.
func String(b *Bytes) string {
	return string(b.slots[:b.n])
}
