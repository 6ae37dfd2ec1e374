// Package channels implements the per-channel feature accumulators.
//
// Each accumulator keeps a capped rolling window of observations and derives
// statistical features on demand. Eviction is FIFO and applies uniformly to
// every channel, including the secondary click/keyboard logs. Derived
// aggregates are maintained incrementally; Features() never rescans more
// than the capped window.
package channels

// Ring is a fixed-capacity FIFO buffer. Pushing into a full ring evicts the
// oldest element.
type Ring[T any] struct {
	buf   []T
	head  int
	count int
}

// NewRing creates a ring with the given capacity. Capacity must be positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, returning the evicted element if the ring was full.
func (r *Ring[T]) Push(v T) (evicted T, wasFull bool) {
	if r.count == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++
	return evicted, false
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.count }

// At returns the i-th oldest element. Panics if i is out of range.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("channels: ring index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Last returns the newest element and whether the ring is non-empty.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// Reset discards all elements.
func (r *Ring[T]) Reset() {
	r.head = 0
	r.count = 0
}

// Window is a bounded sample window with running sum and sum of squares,
// giving O(1) mean and variance over the most recent samples.
type Window struct {
	ring  *Ring[float64]
	sum   float64
	sumSq float64
}

// NewWindow creates a sample window with the given capacity.
func NewWindow(capacity int) *Window {
	return &Window{ring: NewRing[float64](capacity)}
}

// Add records a sample, evicting the oldest if the window is full.
func (w *Window) Add(v float64) {
	if old, full := w.ring.Push(v); full {
		w.sum -= old
		w.sumSq -= old * old
	}
	w.sum += v
	w.sumSq += v * v
}

// Len returns the number of samples in the window.
func (w *Window) Len() int { return w.ring.Len() }

// Mean returns the window mean, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.ring.Len() == 0 {
		return 0
	}
	return w.sum / float64(w.ring.Len())
}

// Variance returns the population variance over the window.
func (w *Window) Variance() float64 {
	n := w.ring.Len()
	if n == 0 {
		return 0
	}
	mean := w.sum / float64(n)
	v := w.sumSq/float64(n) - mean*mean
	if v < 0 {
		// Floating point cancellation can dip just below zero.
		return 0
	}
	return v
}

// Each calls fn for every sample, oldest first.
func (w *Window) Each(fn func(v float64)) {
	for i := 0; i < w.ring.Len(); i++ {
		fn(w.ring.At(i))
	}
}

// Reset discards all samples.
func (w *Window) Reset() {
	w.ring.Reset()
	w.sum = 0
	w.sumSq = 0
}
