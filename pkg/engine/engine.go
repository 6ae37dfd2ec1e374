// Package engine ties the capture layer, accumulators, scorers, anomaly
// detector and decision gate into one session-scoped verification engine.
//
// One Engine instance guards one protected form/page view. Instances share
// nothing; multiple forms on a page get independent engines. All mutable
// state is guarded by a single mutex covering observe, tick and decide, so
// every public call returns immediately using only in-memory state.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/formguard/go-formguard/pkg/channels"
	"github.com/formguard/go-formguard/pkg/config"
	"github.com/formguard/go-formguard/pkg/detector"
	"github.com/formguard/go-formguard/pkg/models"
	"github.com/formguard/go-formguard/pkg/netprobe"
	"github.com/formguard/go-formguard/pkg/scoring"
	"github.com/formguard/go-formguard/pkg/verification"
)

// Engine is the behavioral verification engine for a single session.
type Engine struct {
	mu sync.Mutex

	cfg   config.Config
	log   *slog.Logger
	now   func() time.Time
	fuser *scoring.Fuser
	gate  *verification.Gate

	pointer  *channels.PointerAccumulator
	touch    *channels.TouchAccumulator
	click    *channels.ClickAccumulator
	keyboard *channels.KeyboardAccumulator
	timing   *channels.TimingAccumulator

	det *detector.Detector

	tracking     bool
	sessionStart time.Time
	// lastUpdate is the time of the most recent state mutation (event or
	// tick); snapshots measure session duration against it so repeated
	// snapshots without new input are identical.
	lastUpdate time.Time

	lastClass models.Classification
	hasClass  bool
	level     models.VerificationLevel

	envProbe func() models.EnvReport
	ipProbe  *netprobe.Service

	stop chan struct{}
	wg   sync.WaitGroup

	onClassification func(models.Classification, float64)
	onFlag           func(models.AnomalyFlag)
	onDecision       func(models.Decision)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. Without one the engine is silent.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces the wall clock; used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEnvProbe attaches a probe that refreshes window geometry for the
// periodic devtools heuristic. The probe is called once per tick.
func WithEnvProbe(probe func() models.EnvReport) Option {
	return func(e *Engine) { e.envProbe = probe }
}

// WithNetProbe attaches an IP reputation service consulted by InspectRemote.
func WithNetProbe(probe *netprobe.Service) Option {
	return func(e *Engine) { e.ipProbe = probe }
}

// New creates an engine. Configuration errors fail fast.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	fuser, err := scoring.NewFuser(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	e := &Engine{
		cfg:   cfg,
		now:   time.Now,
		fuser: fuser,
		gate:  verification.NewGate(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	e.initSession(e.now())
	return e, nil
}

func (e *Engine) initSession(start time.Time) {
	e.pointer = channels.NewPointerAccumulator(channels.PointerCapacity)
	e.touch = channels.NewTouchAccumulator(channels.TouchCapacity)
	e.click = channels.NewClickAccumulator(channels.ClickCapacity)
	e.keyboard = channels.NewKeyboardAccumulator(channels.KeyboardCapacity)
	e.timing = channels.NewTimingAccumulator(start)

	e.det = detector.New(e.cfg.HoneypotField)
	e.det.OnFlag(func(f models.AnomalyFlag) {
		e.log.Debug("anomaly flag raised", "type", f.Type, "detail", f.Detail, "penalty", f.Penalty)
		if e.onFlag != nil {
			e.safeCall(func() { e.onFlag(f) })
		}
	})

	e.sessionStart = start
	e.lastUpdate = start
	e.hasClass = false
	e.level = models.LevelNone
}

// OnClassificationChange registers a hook fired once per transition into
// bot or human (edge-triggered; staying at an extreme does not re-fire).
// Hooks run on the engine's goroutine with its lock held; they must not
// call back into the engine.
func (e *Engine) OnClassificationChange(fn func(models.Classification, float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClassification = fn
}

// OnFlag registers a hook fired for every anomaly flag raised.
func (e *Engine) OnFlag(fn func(models.AnomalyFlag)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFlag = fn
}

// OnDecision registers a hook fired whenever Decide produces a decision.
func (e *Engine) OnDecision(fn func(models.Decision)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDecision = fn
}

// Start begins a fresh tracking session and the periodic re-evaluation tick.
// Starting an already-tracking engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracking {
		return
	}
	e.initSession(e.now())
	e.tracking = true
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.tickLoop(e.stop)
	e.log.Info("tracking started", "tick", e.cfg.TickInterval)
}

// Stop atomically disables further Observe effects and cancels the periodic
// tick. An in-flight tick is allowed to finish before Stop returns. Session
// state remains queryable until Reset or the next Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.tracking {
		e.mu.Unlock()
		return
	}
	e.tracking = false
	close(e.stop)
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("tracking stopped")
}

// Reset stops tracking and discards all session state, including the
// verification level and anomaly flags.
func (e *Engine) Reset() {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initSession(e.now())
	e.log.Info("session reset")
}

func (e *Engine) tickLoop(stop <-chan struct{}) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick re-evaluates scores, classification and verification level. Driven
// by the internal ticker while tracking; exposed for deterministic tests.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tracking {
		return
	}
	now := e.now()

	if e.envProbe != nil {
		e.det.InspectDevtools(e.envProbe(), now)
	}

	scores := e.channelScores()
	overall := e.fuser.Fuse(scores)
	class := e.fuser.Classify(overall)

	// Edge-triggered: notify once per transition into an extreme state.
	if (!e.hasClass || class != e.lastClass) &&
		(class == models.ClassBot || class == models.ClassHuman) {
		e.log.Info("classification changed", "classification", class, "score", overall)
		if e.onClassification != nil {
			e.safeCall(func() { e.onClassification(class, overall) })
		}
	}
	e.lastClass = class
	e.hasClass = true

	e.raiseLevel(now)
	e.lastUpdate = now
}

// SetEnvironment feeds a host environment report through the one-shot setup
// checks (automation markers, user agent, viewport geometry).
func (e *Engine) SetEnvironment(report models.EnvReport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.det.InspectEnvironment(report, e.now())
	e.raiseLevel(e.now())
}

// InspectRemote checks the client IP against the attached reputation probe
// and flags datacenter-hosted clients. Without a probe this is a no-op.
func (e *Engine) InspectRemote(ip string) error {
	if e.ipProbe == nil {
		return nil
	}
	rep, err := e.ipProbe.Lookup(ip)
	if err != nil {
		return err
	}
	if rep.Datacenter {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.det.RaiseExternal(models.FlagAutomationMarker,
			fmt.Sprintf("datacenter ASN %d (%s)", rep.ASN, rep.OrgName), e.now())
		e.raiseLevel(e.now())
	}
	return nil
}

// Observe routes one interaction event into the matching accumulators and
// anomaly checks. Events arriving while tracking is stopped are discarded.
// Malformed payloads are tolerated: unusable fields record nothing.
func (e *Engine) Observe(ev models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tracking {
		return
	}
	t := ev.Time
	if t.IsZero() {
		t = e.now()
	}

	switch ev.Kind {
	case models.EventPointerMove, models.EventPointerDown:
		e.pointer.Push(ev.X, ev.Y, t)
		e.det.ObserveInteraction(t)
	case models.EventClick:
		e.click.Push(t)
		e.det.ObserveInteraction(t)
	case models.EventTouchStart:
		x, y, n := touchPayload(ev)
		e.touch.PushStart(x, y, n, t)
		e.det.ObserveInteraction(t)
	case models.EventTouchMove:
		x, y, n := touchPayload(ev)
		e.touch.PushMove(x, y, n, t)
		e.det.ObserveInteraction(t)
	case models.EventTouchEnd:
		x, y, n := touchPayload(ev)
		e.touch.PushEnd(x, y, n, t)
		e.det.ObserveInteraction(t)
	case models.EventKeyDown:
		e.keyboard.PushDown(t)
		e.det.ObserveKeyDown(t)
	case models.EventKeyUp:
		e.keyboard.PushUp(t)
	case models.EventFocus:
		e.det.ObserveFocus(t)
	case models.EventBlur:
		// Accepted for completeness; nothing derives from blur.
	case models.EventVisibilityChange:
		e.det.ObserveVisibility(ev.Visible, t)
	case models.EventPaste:
		e.det.ObservePaste(t)
	case models.EventFieldInput:
		e.det.ObserveFieldInput(ev.Field, ev.Value, t)
	default:
		return
	}

	if ev.Interactive() {
		e.timing.Observe(ev.Kind, t)
	}
	e.raiseLevel(t)
	if t.After(e.lastUpdate) {
		e.lastUpdate = t
	}
}

func touchPayload(ev models.Event) (x, y float64, contacts int) {
	if len(ev.Touches) == 0 {
		return 0, 0, 0
	}
	return ev.Touches[0].X, ev.Touches[0].Y, len(ev.Touches)
}

// channelScores computes all five channel scores. Caller holds the lock.
func (e *Engine) channelScores() scoring.ChannelScores {
	return scoring.ChannelScores{
		Pointer:  scoring.PointerScore(e.pointer.Features(), e.cfg),
		Touch:    scoring.TouchScore(e.touch.Features(), e.cfg),
		Click:    scoring.ClickScore(e.click.Features(), e.cfg),
		Keyboard: scoring.KeyboardScore(e.keyboard.Features(), e.cfg),
		Timing:   scoring.TimingScore(e.timing.Features(), e.cfg),
	}
}

// raiseLevel advances (never lowers) the verification level. Caller holds
// the lock.
func (e *Engine) raiseLevel(now time.Time) {
	elapsed := now.Sub(e.sessionStart)
	if elapsed < 0 {
		elapsed = 0
	}
	derived := verification.LevelFor(e.det.Confidence(), e.det.FlagCount(), elapsed, e.cfg.MinTrackingTime)
	if derived > e.level {
		e.level = derived
	}
}

// CurrentScore returns the weighted overall score in [0,1].
func (e *Engine) CurrentScore() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fuser.Fuse(e.channelScores())
}

// Classification returns the current three-way verdict.
func (e *Engine) Classification() models.Classification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fuser.Classify(e.fuser.Fuse(e.channelScores()))
}

// Level returns the highest verification level reached this session.
func (e *Engine) Level() models.VerificationLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// AnalysisSnapshot returns the structured report of the current session
// state. It is a pure read: repeated calls with no intervening observation
// or tick return identical reports.
func (e *Engine) AnalysisSnapshot() models.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	scores := e.channelScores()
	overall := e.fuser.Fuse(scores)

	pf := e.pointer.Features()
	tf := e.touch.Features()
	cf := e.click.Features()
	kf := e.keyboard.Features()
	gf := e.timing.Features()

	return models.Report{
		OverallScore:   overall,
		ChannelScores:  scores.Map(),
		Classification: e.fuser.Classify(overall),
		Level:          e.level,
		Confidence:     e.det.Confidence(),
		FlagCount:      e.det.FlagCount(),
		Flags:          e.det.Flags(),
		Features: map[string]models.ChannelFeatures{
			"pointer": {Samples: pf.Samples, Values: map[string]float64{
				"total_path":            pf.TotalPath,
				"max_velocity":          pf.MaxVelocity,
				"velocity_variance":     pf.VelocityVariance,
				"acceleration_variance": pf.AccelerationVariance,
				"linearity":             pf.Linearity,
			}},
			"touch": {Samples: tf.Samples, Values: map[string]float64{
				"multi_touch":             boolToFloat(tf.MultiTouch),
				"swipe_velocity_variance": tf.SwipeVelocityVariance,
			}},
			"click": {Samples: cf.Count, Values: map[string]float64{
				"interval_variance": cf.IntervalVariance,
				"consistency_ratio": cf.ConsistencyRatio,
			}},
			"keyboard": {Samples: kf.Count, Values: map[string]float64{
				"interval_variance":   kf.IntervalVariance,
				"natural_pause_ratio": kf.NaturalPauseRatio,
			}},
			"timing": {Samples: gf.InteractedKinds, Values: map[string]float64{
				"first_delay_ms":     gf.FirstDelayMs,
				"delay_variance_ms2": gf.DelayVarianceMs2,
			}},
		},
		SessionDuration: e.lastUpdate.Sub(e.sessionStart),
		TrackingActive:  e.tracking,
	}
}

// Decide runs the final decision gate against the current session state.
// Callable at submission time whether or not tracking is still active.
func (e *Engine) Decide() models.Decision {
	e.mu.Lock()

	now := e.now()
	elapsed := now.Sub(e.sessionStart)
	if elapsed < 0 {
		elapsed = 0
	}
	scores := e.channelScores()
	overall := e.fuser.Fuse(scores)
	e.raiseLevel(now)

	in := verification.GateInput{
		HoneypotFilled:     e.det.HoneypotFilled(),
		Elapsed:            elapsed,
		PointerEvents:      e.pointer.Features().Samples,
		Classification:     e.fuser.Classify(overall),
		Level:              e.level,
		Confidence:         e.det.Confidence(),
		OverallScore:       overall,
		InteractedChannels: e.interactedChannels(),
		FlagCount:          e.det.FlagCount(),
	}
	decision := e.gate.Decide(in)
	e.log.Info("decision made",
		"allow", decision.Allow, "reason", decision.Reason,
		"score", decision.Score, "confidence", decision.Confidence)
	fn := e.onDecision
	e.mu.Unlock()

	if fn != nil {
		e.safeCall(func() { fn(decision) })
	}
	return decision
}

// VerificationToken shapes the opaque payload for a server-side auditor.
// The engine does not sign or encrypt it.
func (e *Engine) VerificationToken() models.Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	return models.Token{
		Timestamp:         now.UnixMilli(),
		Score:             e.fuser.Fuse(e.channelScores()),
		Confidence:        e.det.Confidence(),
		SessionDurationMs: now.Sub(e.sessionStart).Milliseconds(),
	}
}

// interactedChannels counts channels with at least one observation. Caller
// holds the lock.
func (e *Engine) interactedChannels() int {
	n := 0
	if e.pointer.Features().Samples > 0 {
		n++
	}
	if e.touch.Features().Samples > 0 {
		n++
	}
	if e.click.Features().Count > 0 {
		n++
	}
	if e.keyboard.Features().Count > 0 {
		n++
	}
	if _, ok := e.timing.FirstInteraction(); ok {
		n++
	}
	return n
}

// safeCall invokes a caller-provided hook, recovering panics so one failing
// observer cannot corrupt session state or suppress other notifications.
func (e *Engine) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("callback panicked", "panic", r)
		}
	}()
	fn()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
