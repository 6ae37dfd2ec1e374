package channels

import (
	"math"
	"time"
)

// Default capacities for the per-channel rolling windows. The pointer buffer
// matches the reference capture window; the secondary channels get the same
// bounded treatment instead of growing without limit.
const (
	PointerCapacity  = 1000
	TouchCapacity    = 500
	ClickCapacity    = 256
	KeyboardCapacity = 512
)

// pointerSample is one observed pointer position.
type pointerSample struct {
	x, y float64
	t    time.Time
}

// pointerStep is the derived segment between two consecutive samples.
// headingDev is the absolute heading change versus the previous segment.
type pointerStep struct {
	length     float64
	heading    float64
	headingDev float64
}

// PointerFeatures are the derived statistics of the pointer channel.
type PointerFeatures struct {
	Samples              int
	TotalPath            float64 // px, session total
	MaxVelocity          float64 // px/s, session max
	VelocityVariance     float64 // (px/s)^2 over the window
	AccelerationVariance float64 // (px/s^2)^2 over the window
	// Linearity is 1 minus the ratio of cumulative heading deviation to
	// cumulative path length over the window. Near 1.0 means robotically
	// straight motion.
	Linearity float64
}

// PointerAccumulator derives velocity, acceleration and path-linearity
// features from pointer positions.
type PointerAccumulator struct {
	points *Ring[pointerSample]
	steps  *Ring[pointerStep]

	velocities    *Window
	accelerations *Window

	totalPath   float64
	maxVelocity float64

	// Windowed linearity aggregates, adjusted on step eviction.
	headingDevSum float64
	windowPathLen float64

	lastVelocity float64
	hasVelocity  bool
	lastHeading  float64
	hasHeading   bool
}

// NewPointerAccumulator creates a pointer accumulator with the given window
// capacity (in samples).
func NewPointerAccumulator(capacity int) *PointerAccumulator {
	if capacity <= 0 {
		capacity = PointerCapacity
	}
	return &PointerAccumulator{
		points:        NewRing[pointerSample](capacity),
		steps:         NewRing[pointerStep](capacity),
		velocities:    NewWindow(capacity),
		accelerations: NewWindow(capacity),
	}
}

// Push records a pointer position. Out-of-order timestamps are tolerated:
// negative time deltas clamp to zero, recording the position without a rate
// sample so aggregates are never corrupted.
func (p *PointerAccumulator) Push(x, y float64, t time.Time) {
	prev, ok := p.points.Last()
	p.points.Push(pointerSample{x: x, y: y, t: t})
	if !ok {
		return
	}

	dx, dy := x-prev.x, y-prev.y
	dist := math.Hypot(dx, dy)
	p.totalPath += dist

	dt := t.Sub(prev.t).Seconds()
	if dt < 0 {
		dt = 0
	}
	if dt > 0 {
		v := dist / dt
		p.velocities.Add(v)
		if v > p.maxVelocity {
			p.maxVelocity = v
		}
		if p.hasVelocity {
			p.accelerations.Add((v - p.lastVelocity) / dt)
		}
		p.lastVelocity = v
		p.hasVelocity = true
	}

	if dist == 0 {
		return
	}
	heading := math.Atan2(dy, dx)
	step := pointerStep{length: dist, heading: heading}
	if p.hasHeading {
		step.headingDev = angleDelta(heading, p.lastHeading)
	}
	p.lastHeading = heading
	p.hasHeading = true

	if old, full := p.steps.Push(step); full {
		p.headingDevSum -= old.headingDev
		p.windowPathLen -= old.length
	}
	p.headingDevSum += step.headingDev
	p.windowPathLen += step.length
}

// Features derives the current pointer statistics without mutating state.
func (p *PointerAccumulator) Features() PointerFeatures {
	f := PointerFeatures{
		Samples:              p.points.Len(),
		TotalPath:            p.totalPath,
		MaxVelocity:          p.maxVelocity,
		VelocityVariance:     p.velocities.Variance(),
		AccelerationVariance: p.accelerations.Variance(),
	}
	// Linearity needs at least three points (two segments).
	if p.points.Len() >= 3 && p.windowPathLen > 0 {
		lin := 1 - p.headingDevSum/p.windowPathLen
		f.Linearity = clamp01(lin)
	}
	return f
}

// Reset discards all state.
func (p *PointerAccumulator) Reset() {
	p.points.Reset()
	p.steps.Reset()
	p.velocities.Reset()
	p.accelerations.Reset()
	p.totalPath = 0
	p.maxVelocity = 0
	p.headingDevSum = 0
	p.windowPathLen = 0
	p.hasVelocity = false
	p.hasHeading = false
}

// angleDelta returns the absolute difference between two headings, wrapped
// to [0, pi].
func angleDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
