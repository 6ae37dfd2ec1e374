package channels

import (
	"math"
	"time"
)

// touchPhase distinguishes start/move/end snapshots.
type touchPhase int

const (
	touchStart touchPhase = iota
	touchMove
	touchEnd
)

// touchSample is one touch snapshot (first contact position).
type touchSample struct {
	x, y     float64
	t        time.Time
	phase    touchPhase
	contacts int
}

// TouchFeatures are the derived statistics of the touch channel.
type TouchFeatures struct {
	Samples               int
	MultiTouch            bool    // any snapshot with >=2 simultaneous contacts
	SwipeVelocityVariance float64 // (px/s)^2 between consecutive move samples
}

// TouchAccumulator records touch snapshots and derives swipe velocity
// statistics between consecutive move samples.
type TouchAccumulator struct {
	samples    *Ring[touchSample]
	swipes     *Window
	multiTouch bool

	lastMove    touchSample
	hasLastMove bool
}

// NewTouchAccumulator creates a touch accumulator with the given capacity.
func NewTouchAccumulator(capacity int) *TouchAccumulator {
	if capacity <= 0 {
		capacity = TouchCapacity
	}
	return &TouchAccumulator{
		samples: NewRing[touchSample](capacity),
		swipes:  NewWindow(capacity),
	}
}

// PushStart records a touch-start snapshot. A zero contact count records
// nothing (malformed payload tolerance).
func (a *TouchAccumulator) PushStart(x, y float64, contacts int, t time.Time) {
	a.push(x, y, contacts, t, touchStart)
	a.hasLastMove = false
}

// PushMove records a touch-move snapshot and a swipe velocity sample against
// the previous move.
func (a *TouchAccumulator) PushMove(x, y float64, contacts int, t time.Time) {
	if contacts <= 0 {
		return
	}
	if a.hasLastMove {
		dt := t.Sub(a.lastMove.t).Seconds()
		if dt > 0 {
			dist := math.Hypot(x-a.lastMove.x, y-a.lastMove.y)
			a.swipes.Add(dist / dt)
		}
	}
	a.push(x, y, contacts, t, touchMove)
	a.lastMove = touchSample{x: x, y: y, t: t}
	a.hasLastMove = true
}

// PushEnd records a touch-end snapshot and closes the current swipe.
func (a *TouchAccumulator) PushEnd(x, y float64, contacts int, t time.Time) {
	a.push(x, y, contacts, t, touchEnd)
	a.hasLastMove = false
}

func (a *TouchAccumulator) push(x, y float64, contacts int, t time.Time, phase touchPhase) {
	if contacts <= 0 {
		return
	}
	if contacts >= 2 {
		a.multiTouch = true
	}
	a.samples.Push(touchSample{x: x, y: y, t: t, phase: phase, contacts: contacts})
}

// Features derives the current touch statistics without mutating state.
func (a *TouchAccumulator) Features() TouchFeatures {
	return TouchFeatures{
		Samples:               a.samples.Len(),
		MultiTouch:            a.multiTouch,
		SwipeVelocityVariance: a.swipes.Variance(),
	}
}

// Reset discards all state.
func (a *TouchAccumulator) Reset() {
	a.samples.Reset()
	a.swipes.Reset()
	a.multiTouch = false
	a.hasLastMove = false
}
