package channels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formguard/go-formguard/pkg/models"
)

func TestTouchAccumulator_MultiTouchIsSticky(t *testing.T) {
	acc := NewTouchAccumulator(50)

	acc.PushStart(100, 100, 2, t0)
	acc.PushEnd(100, 100, 1, t0.Add(200*time.Millisecond))
	acc.PushStart(50, 50, 1, t0.Add(time.Second))

	f := acc.Features()
	assert.True(t, f.MultiTouch)
	assert.Equal(t, 3, f.Samples)
}

func TestTouchAccumulator_SwipeVelocityVariance(t *testing.T) {
	acc := NewTouchAccumulator(50)

	acc.PushStart(0, 0, 1, t0)
	// Irregular swipe: distances vary per fixed interval.
	ts := t0
	for i, dx := range []float64{5, 30, 12, 60, 8} {
		ts = ts.Add(20 * time.Millisecond)
		acc.PushMove(float64(i*10)+dx, 0, 1, ts)
	}
	acc.PushEnd(100, 0, 1, ts.Add(20*time.Millisecond))

	assert.Greater(t, acc.Features().SwipeVelocityVariance, 0.0)
}

func TestTouchAccumulator_SwipeBrokenByEnd(t *testing.T) {
	acc := NewTouchAccumulator(50)

	acc.PushStart(0, 0, 1, t0)
	acc.PushMove(10, 0, 1, t0.Add(20*time.Millisecond))
	acc.PushEnd(10, 0, 1, t0.Add(40*time.Millisecond))
	// New gesture: the first move must not pair with the previous gesture.
	acc.PushStart(500, 500, 1, t0.Add(2*time.Second))
	acc.PushMove(510, 500, 1, t0.Add(2*time.Second+20*time.Millisecond))

	// One swipe sample per gesture pair: only the move-to-move inside a
	// gesture counts, so variance stays 0 with a single sample per gesture.
	assert.Equal(t, 0.0, acc.Features().SwipeVelocityVariance)
}

func TestTouchAccumulator_ZeroContactsRecordsNothing(t *testing.T) {
	acc := NewTouchAccumulator(50)
	acc.PushStart(10, 10, 0, t0)
	acc.PushMove(20, 10, 0, t0.Add(20*time.Millisecond))

	assert.Equal(t, 0, acc.Features().Samples)
}

func TestClickAccumulator_MechanicalClicksHaveHighConsistency(t *testing.T) {
	acc := NewClickAccumulator(50)

	// Exactly 100ms apart.
	for i := 0; i < 10; i++ {
		acc.Push(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}

	f := acc.Features()
	require.Equal(t, 9, f.IntervalCount)
	assert.InDelta(t, 1.0, f.ConsistencyRatio, 1e-9)
	assert.InDelta(t, 0.0, f.IntervalVariance, 1e-9)
}

func TestClickAccumulator_IrregularClicksHaveLowConsistency(t *testing.T) {
	acc := NewClickAccumulator(50)

	ts := t0
	for _, gap := range []time.Duration{
		120 * time.Millisecond, 900 * time.Millisecond, 350 * time.Millisecond,
		2 * time.Second, 180 * time.Millisecond, 640 * time.Millisecond,
	} {
		ts = ts.Add(gap)
		acc.Push(ts)
	}

	f := acc.Features()
	assert.Greater(t, f.IntervalVariance, 0.0)
	assert.Less(t, f.ConsistencyRatio, 0.8)
}

func TestClickAccumulator_NegativeIntervalClampsToZero(t *testing.T) {
	acc := NewClickAccumulator(50)
	acc.Push(t0)
	acc.Push(t0.Add(-time.Second))

	f := acc.Features()
	assert.Equal(t, 1, f.IntervalCount)
	assert.GreaterOrEqual(t, f.IntervalVariance, 0.0)
}

func TestKeyboardAccumulator_NaturalPauses(t *testing.T) {
	acc := NewKeyboardAccumulator(50)

	ts := t0
	gaps := []time.Duration{
		100 * time.Millisecond, 150 * time.Millisecond,
		800 * time.Millisecond, // thinking pause
		120 * time.Millisecond,
		1200 * time.Millisecond, // another pause
	}
	acc.PushDown(ts)
	for _, gap := range gaps {
		ts = ts.Add(gap)
		acc.PushDown(ts)
	}

	f := acc.Features()
	require.Equal(t, 5, f.IntervalCount)
	assert.Equal(t, 2, f.NaturalPauses)
	assert.InDelta(t, 0.4, f.NaturalPauseRatio, 1e-9)
	assert.Greater(t, f.IntervalVariance, 0.0)
}

func TestKeyboardAccumulator_KeyUpIsIgnored(t *testing.T) {
	acc := NewKeyboardAccumulator(50)
	acc.PushDown(t0)
	acc.PushUp(t0.Add(40 * time.Millisecond))
	acc.PushDown(t0.Add(200 * time.Millisecond))

	f := acc.Features()
	assert.Equal(t, 2, f.Count)
	assert.Equal(t, 1, f.IntervalCount)
}

func TestKeyboardAccumulator_RecentIntervals(t *testing.T) {
	acc := NewKeyboardAccumulator(50)
	ts := t0
	for _, gap := range []time.Duration{100, 200, 300, 400} {
		acc.PushDown(ts)
		ts = ts.Add(gap * time.Millisecond)
	}
	acc.PushDown(ts)

	recent := acc.RecentIntervals(2)
	require.Len(t, recent, 2)
	assert.Equal(t, []float64{300, 400}, recent)
}

func TestTimingAccumulator_FirstDelayAndKinds(t *testing.T) {
	acc := NewTimingAccumulator(t0)

	acc.Observe(models.EventPointerMove, t0.Add(1200*time.Millisecond))
	acc.Observe(models.EventPointerMove, t0.Add(1300*time.Millisecond)) // repeat, ignored
	acc.Observe(models.EventKeyDown, t0.Add(3*time.Second))
	acc.Observe(models.EventClick, t0.Add(5*time.Second))

	f := acc.Features()
	assert.InDelta(t, 1200, f.FirstDelayMs, 1e-9)
	assert.Equal(t, 3, f.InteractedKinds)
	assert.Greater(t, f.DelayVarianceMs2, 0.0)
}

func TestTimingAccumulator_NoInteraction(t *testing.T) {
	acc := NewTimingAccumulator(t0)

	f := acc.Features()
	assert.Equal(t, -1.0, f.FirstDelayMs)
	assert.Equal(t, 0, f.InteractedKinds)

	_, ok := acc.FirstInteraction()
	assert.False(t, ok)
}

func TestTimingAccumulator_PreStartClampsToZero(t *testing.T) {
	acc := NewTimingAccumulator(t0)
	acc.Observe(models.EventClick, t0.Add(-time.Second))

	f := acc.Features()
	assert.Equal(t, 0.0, f.FirstDelayMs)
}
