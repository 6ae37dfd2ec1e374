// Package detector implements the anomaly flag detector: independent rule
// checks that append weighted penalties to a running confidence value.
//
// The detector runs alongside the channel-based classifier, not inside it.
// Its confidence and flag count feed the verification level together with the
// classifier's overall score.
package detector

import (
	"time"

	"github.com/formguard/go-formguard/pkg/channels"
	"github.com/formguard/go-formguard/pkg/models"
	"github.com/formguard/go-formguard/pkg/rules"
)

// FlagLogCapacity bounds the anomaly flag log; oldest flags are evicted
// first, the same strategy as every channel buffer.
const FlagLogCapacity = 256

// Event-time detection thresholds.
const (
	// focusToInputMin is the minimum believable latency between focusing a
	// field and the first keystroke in it.
	focusToInputMin = 100 * time.Millisecond

	// uniformIntervalMax and uniformIntervalSpread define mechanical typing:
	// the last uniformWindow intervals all below 50ms and within 5ms of
	// each other.
	uniformIntervalMax    = 50 * time.Millisecond
	uniformIntervalSpread = 5 * time.Millisecond
	uniformWindow         = 4

	// visibilityBurstWindow is the window after the page regains visibility
	// within which an interaction counts as a scripted burst.
	visibilityBurstWindow = 100 * time.Millisecond
)

// Detector maintains the append-only flag log and the running confidence.
type Detector struct {
	honeypotField string
	setupChecks   []rules.Check
	devtools      *rules.DevtoolsCheck

	flags      *channels.Ring[models.AnomalyFlag]
	confidence float64

	// once tracks flag types that are only raised a single time per session
	// (environment findings and typing-cadence verdicts).
	once map[models.FlagType]bool

	honeypotFilled bool

	lastFocus     time.Time
	hasFocus      bool
	keyAfterFocus bool

	recentKeys *channels.Ring[time.Time]

	visibleSince time.Time
	hasVisible   bool

	onFlag func(models.AnomalyFlag)
}

// New creates a detector guarding the named honeypot field.
func New(honeypotField string) *Detector {
	return &Detector{
		honeypotField: honeypotField,
		setupChecks:   rules.SetupChecks(),
		devtools:      rules.NewDevtoolsCheck(),
		flags:         channels.NewRing[models.AnomalyFlag](FlagLogCapacity),
		confidence:    1.0,
		once:          make(map[models.FlagType]bool),
		recentKeys:    channels.NewRing[time.Time](uniformWindow + 1),
	}
}

// OnFlag registers a callback fired for every raised flag.
func (d *Detector) OnFlag(fn func(models.AnomalyFlag)) { d.onFlag = fn }

// Confidence returns the running human-likelihood confidence in [0,1].
func (d *Detector) Confidence() float64 { return d.confidence }

// FlagCount returns the number of flags currently in the log.
func (d *Detector) FlagCount() int { return d.flags.Len() }

// HoneypotFilled reports whether the honeypot trap was ever populated.
func (d *Detector) HoneypotFilled() bool { return d.honeypotFilled }

// Flags returns a copy of the flag log, oldest first.
func (d *Detector) Flags() []models.AnomalyFlag {
	out := make([]models.AnomalyFlag, 0, d.flags.Len())
	for i := 0; i < d.flags.Len(); i++ {
		out = append(out, d.flags.At(i))
	}
	return out
}

// InspectEnvironment runs the one-shot setup checks against a host report.
func (d *Detector) InspectEnvironment(report models.EnvReport, now time.Time) {
	for _, check := range d.setupChecks {
		if flag, detail, hit := check.Inspect(report); hit {
			d.raiseOnce(flag, detail, now)
		}
	}
}

// InspectDevtools runs the periodic devtools-size heuristic against a
// refreshed geometry report.
func (d *Detector) InspectDevtools(report models.EnvReport, now time.Time) {
	if flag, detail, hit := d.devtools.Inspect(report); hit {
		d.raiseOnce(flag, detail, now)
	}
}

// ObserveFieldInput checks the honeypot trap.
func (d *Detector) ObserveFieldInput(field, value string, t time.Time) {
	if d.honeypotField != "" && field == d.honeypotField && value != "" {
		d.honeypotFilled = true
		d.raiseOnce(models.FlagHoneypot, "honeypot field populated", t)
	}
	d.observeInteraction(t)
}

// ObserveFocus records field focus for the focus-to-input latency check.
func (d *Detector) ObserveFocus(t time.Time) {
	d.lastFocus = t
	d.hasFocus = true
	d.keyAfterFocus = false
	d.observeInteraction(t)
}

// ObserveKeyDown runs the typing-cadence checks.
func (d *Detector) ObserveKeyDown(t time.Time) {
	if d.hasFocus && !d.keyAfterFocus {
		d.keyAfterFocus = true
		if lag := t.Sub(d.lastFocus); lag >= 0 && lag < focusToInputMin {
			d.raiseOnce(models.FlagFastTyping, "keystroke within 100ms of field focus", t)
		}
	}

	d.recentKeys.Push(t)
	if d.uniformCadence() {
		d.raiseOnce(models.FlagUniformTyping, "uniform sub-50ms keystroke intervals", t)
	}
	d.observeInteraction(t)
}

// ObservePaste flags clipboard use.
func (d *Detector) ObservePaste(t time.Time) {
	d.raise(models.FlagPaste, "paste event observed", t)
	d.observeInteraction(t)
}

// ObserveVisibility tracks page visibility for the burst check.
func (d *Detector) ObserveVisibility(visible bool, t time.Time) {
	if visible {
		d.visibleSince = t
		d.hasVisible = true
	} else {
		d.hasVisible = false
	}
}

// ObserveInteraction applies the visibility-burst check to any interaction
// not covered by a more specific observer.
func (d *Detector) ObserveInteraction(t time.Time) { d.observeInteraction(t) }

func (d *Detector) observeInteraction(t time.Time) {
	if !d.hasVisible {
		return
	}
	if gap := t.Sub(d.visibleSince); gap >= 0 && gap < visibilityBurstWindow {
		d.raiseOnce(models.FlagVisibilityBurst, "interaction within 100ms of visibility regain", t)
	}
}

// uniformCadence reports whether the last few inter-key intervals are
// mechanically uniform.
func (d *Detector) uniformCadence() bool {
	if d.recentKeys.Len() < uniformWindow+1 {
		return false
	}
	minIv := time.Duration(1<<62 - 1)
	maxIv := time.Duration(0)
	for i := 1; i < d.recentKeys.Len(); i++ {
		iv := d.recentKeys.At(i).Sub(d.recentKeys.At(i - 1))
		if iv < 0 {
			return false
		}
		if iv < minIv {
			minIv = iv
		}
		if iv > maxIv {
			maxIv = iv
		}
	}
	return maxIv < uniformIntervalMax && maxIv-minIv < uniformIntervalSpread
}

// raiseOnce raises a flag at most once per session for its type.
func (d *Detector) raiseOnce(t models.FlagType, detail string, at time.Time) {
	if d.once[t] {
		return
	}
	d.once[t] = true
	d.raise(t, detail, at)
}

// raise appends a flag and applies its penalty, clamping confidence to [0,1].
func (d *Detector) raise(t models.FlagType, detail string, at time.Time) {
	flag := models.AnomalyFlag{
		Type:    t,
		Detail:  detail,
		Time:    at,
		Penalty: models.PenaltyFor(t),
	}
	d.flags.Push(flag)

	d.confidence -= flag.Penalty
	if d.confidence < 0 {
		d.confidence = 0
	}
	if d.confidence > 1 {
		d.confidence = 1
	}

	if d.onFlag != nil {
		d.onFlag(flag)
	}
}

// RaiseExternal lets a server-side collaborator (e.g. the netprobe) append
// a flag with a custom type.
func (d *Detector) RaiseExternal(t models.FlagType, detail string, at time.Time) {
	d.raiseOnce(t, detail, at)
}

// Reset clears the flag log and restores full confidence.
func (d *Detector) Reset() {
	d.flags.Reset()
	d.confidence = 1.0
	d.once = make(map[models.FlagType]bool)
	d.honeypotFilled = false
	d.hasFocus = false
	d.keyAfterFocus = false
	d.recentKeys.Reset()
	d.hasVisible = false
}
