package channels

import "time"

// NaturalPauseThreshold is the inter-keystroke interval above which a pause
// is considered an organic thinking pause.
const NaturalPauseThreshold = 500 * time.Millisecond

// KeyboardFeatures are the derived statistics of the keyboard channel.
type KeyboardFeatures struct {
	Count            int
	IntervalCount    int
	IntervalVariance float64 // ms^2
	NaturalPauses    int
	// NaturalPauseRatio is the fraction of intervals that were natural
	// pauses (> 500ms).
	NaturalPauseRatio float64
}

// KeyboardAccumulator records key-down timestamps and derives inter-keystroke
// interval statistics.
type KeyboardAccumulator struct {
	intervals *Window // ms, between consecutive key-downs
	count     int
	lastDown  time.Time
	hasLast   bool
}

// NewKeyboardAccumulator creates a keyboard accumulator with the given
// capacity.
func NewKeyboardAccumulator(capacity int) *KeyboardAccumulator {
	if capacity <= 0 {
		capacity = KeyboardCapacity
	}
	return &KeyboardAccumulator{intervals: NewWindow(capacity)}
}

// PushDown records a key-down. Negative intervals clamp to zero.
func (k *KeyboardAccumulator) PushDown(t time.Time) {
	k.count++
	if k.hasLast {
		d := t.Sub(k.lastDown)
		if d < 0 {
			d = 0
		}
		k.intervals.Add(float64(d.Milliseconds()))
	}
	k.lastDown = t
	k.hasLast = true
}

// PushUp records a key-up. Only key-downs drive interval statistics; the up
// event is accepted for interface completeness.
func (k *KeyboardAccumulator) PushUp(t time.Time) {}

// LastInterval returns the most recent inter-keystroke interval in
// milliseconds, if any. Used by the uniform-typing anomaly check.
func (k *KeyboardAccumulator) LastInterval() (float64, bool) {
	return k.intervals.ring.Last()
}

// RecentIntervals returns up to n of the newest intervals (ms), oldest first.
func (k *KeyboardAccumulator) RecentIntervals(n int) []float64 {
	total := k.intervals.Len()
	if n > total {
		n = total
	}
	out := make([]float64, 0, n)
	for i := total - n; i < total; i++ {
		out = append(out, k.intervals.ring.At(i))
	}
	return out
}

// Features derives the current keyboard statistics without mutating state.
func (k *KeyboardAccumulator) Features() KeyboardFeatures {
	f := KeyboardFeatures{
		Count:            k.count,
		IntervalCount:    k.intervals.Len(),
		IntervalVariance: k.intervals.Variance(),
	}
	if n := k.intervals.Len(); n > 0 {
		pauseMs := float64(NaturalPauseThreshold.Milliseconds())
		pauses := 0
		k.intervals.Each(func(v float64) {
			if v > pauseMs {
				pauses++
			}
		})
		f.NaturalPauses = pauses
		f.NaturalPauseRatio = float64(pauses) / float64(n)
	}
	return f
}

// Reset discards all state.
func (k *KeyboardAccumulator) Reset() {
	k.intervals.Reset()
	k.count = 0
	k.hasLast = false
}
