package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_PushEvictsOldest(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 3; i++ {
		_, full := r.Push(i)
		assert.False(t, full)
	}
	require.Equal(t, 3, r.Len())

	evicted, full := r.Push(4)
	assert.True(t, full)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 3, r.Len())

	// Oldest-first order after eviction.
	assert.Equal(t, 2, r.At(0))
	assert.Equal(t, 3, r.At(1))
	assert.Equal(t, 4, r.At(2))
}

func TestRing_Last(t *testing.T) {
	r := NewRing[string](2)

	_, ok := r.Last()
	assert.False(t, ok)

	r.Push("a")
	r.Push("b")
	r.Push("c")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last)
}

func TestRing_Reset(t *testing.T) {
	r := NewRing[int](4)
	r.Push(1)
	r.Push(2)
	r.Reset()

	assert.Equal(t, 0, r.Len())
	_, ok := r.Last()
	assert.False(t, ok)
}

func TestWindow_MeanVariance(t *testing.T) {
	w := NewWindow(10)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Add(v)
	}

	assert.InDelta(t, 5.0, w.Mean(), 1e-9)
	assert.InDelta(t, 4.0, w.Variance(), 1e-9)
}

func TestWindow_EvictionAdjustsAggregates(t *testing.T) {
	w := NewWindow(3)
	w.Add(100)
	w.Add(10)
	w.Add(20)
	w.Add(30) // evicts 100

	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 20.0, w.Mean(), 1e-9)
	// Variance of {10, 20, 30}.
	assert.InDelta(t, 200.0/3.0, w.Variance(), 1e-9)
}

func TestWindow_ConstantSamplesHaveZeroVariance(t *testing.T) {
	w := NewWindow(5)
	for i := 0; i < 20; i++ {
		w.Add(42)
	}
	assert.InDelta(t, 0.0, w.Variance(), 1e-9)
	assert.GreaterOrEqual(t, w.Variance(), 0.0)
}

func TestWindow_Empty(t *testing.T) {
	w := NewWindow(4)
	assert.Equal(t, 0.0, w.Mean())
	assert.Equal(t, 0.0, w.Variance())
}
