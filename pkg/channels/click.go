package channels

import (
	"math"
	"time"
)

// ClickConsistencyTolerance is the band around the mean inter-click interval
// counted as "mechanically consistent".
const ClickConsistencyTolerance = 10 * time.Millisecond

// ClickFeatures are the derived statistics of the click channel.
type ClickFeatures struct {
	Count            int
	IntervalCount    int
	IntervalVariance float64 // ms^2
	// ConsistencyRatio is the fraction of inter-click intervals within
	// +/-10ms of the mean interval. A high ratio is suspiciously mechanical.
	ConsistencyRatio float64
}

// ClickAccumulator records click timestamps and derives inter-click interval
// statistics.
type ClickAccumulator struct {
	intervals *Window // ms
	count     int
	last      time.Time
	hasLast   bool
}

// NewClickAccumulator creates a click accumulator with the given capacity.
func NewClickAccumulator(capacity int) *ClickAccumulator {
	if capacity <= 0 {
		capacity = ClickCapacity
	}
	return &ClickAccumulator{intervals: NewWindow(capacity)}
}

// Push records a click. Negative intervals (out-of-order timestamps) clamp
// to zero.
func (c *ClickAccumulator) Push(t time.Time) {
	c.count++
	if c.hasLast {
		d := t.Sub(c.last)
		if d < 0 {
			d = 0
		}
		c.intervals.Add(float64(d.Milliseconds()))
	}
	c.last = t
	c.hasLast = true
}

// Features derives the current click statistics without mutating state.
func (c *ClickAccumulator) Features() ClickFeatures {
	f := ClickFeatures{
		Count:            c.count,
		IntervalCount:    c.intervals.Len(),
		IntervalVariance: c.intervals.Variance(),
	}
	if n := c.intervals.Len(); n > 0 {
		mean := c.intervals.Mean()
		tol := float64(ClickConsistencyTolerance.Milliseconds())
		within := 0
		c.intervals.Each(func(v float64) {
			if math.Abs(v-mean) <= tol {
				within++
			}
		})
		f.ConsistencyRatio = float64(within) / float64(n)
	}
	return f
}

// Reset discards all state.
func (c *ClickAccumulator) Reset() {
	c.intervals.Reset()
	c.count = 0
	c.hasLast = false
}
