package channels

import (
	"time"

	"github.com/formguard/go-formguard/pkg/models"
)

// TimingFeatures are the derived statistics of the timing channel.
type TimingFeatures struct {
	// FirstDelayMs is the delay between session start and the first
	// qualifying interaction. Negative when no interaction has occurred.
	FirstDelayMs float64
	// DelayVarianceMs2 is the variance across the per-kind first-occurrence
	// delays.
	DelayVarianceMs2 float64
	// InteractedKinds is the number of distinct event kinds observed.
	InteractedKinds int
}

// TimingAccumulator records session start, first interaction, and the
// first-occurrence delay of each interaction kind.
type TimingAccumulator struct {
	sessionStart     time.Time
	firstInteraction time.Time
	hasFirst         bool
	firstDelays      map[models.EventKind]float64 // ms since session start
}

// NewTimingAccumulator creates a timing accumulator anchored at the session
// start time.
func NewTimingAccumulator(sessionStart time.Time) *TimingAccumulator {
	return &TimingAccumulator{
		sessionStart: sessionStart,
		firstDelays:  make(map[models.EventKind]float64),
	}
}

// Observe records the first occurrence of each interaction kind. Delays
// before session start clamp to zero.
func (a *TimingAccumulator) Observe(kind models.EventKind, t time.Time) {
	delay := t.Sub(a.sessionStart)
	if delay < 0 {
		delay = 0
	}
	if !a.hasFirst {
		a.firstInteraction = t
		a.hasFirst = true
	}
	if _, seen := a.firstDelays[kind]; !seen {
		a.firstDelays[kind] = float64(delay.Milliseconds())
	}
}

// FirstInteraction returns the first-interaction timestamp, if any.
func (a *TimingAccumulator) FirstInteraction() (time.Time, bool) {
	return a.firstInteraction, a.hasFirst
}

// Features derives the current timing statistics without mutating state.
func (a *TimingAccumulator) Features() TimingFeatures {
	f := TimingFeatures{FirstDelayMs: -1, InteractedKinds: len(a.firstDelays)}
	if a.hasFirst {
		f.FirstDelayMs = float64(a.firstInteraction.Sub(a.sessionStart).Milliseconds())
		if f.FirstDelayMs < 0 {
			f.FirstDelayMs = 0
		}
	}
	if n := len(a.firstDelays); n > 0 {
		var sum, sumSq float64
		for _, d := range a.firstDelays {
			sum += d
			sumSq += d * d
		}
		mean := sum / float64(n)
		v := sumSq/float64(n) - mean*mean
		if v > 0 {
			f.DelayVarianceMs2 = v
		}
	}
	return f
}

// Reset re-anchors the accumulator at a new session start.
func (a *TimingAccumulator) Reset(sessionStart time.Time) {
	a.sessionStart = sessionStart
	a.hasFirst = false
	a.firstDelays = make(map[models.EventKind]float64)
}
