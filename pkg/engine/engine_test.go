package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formguard/go-formguard/pkg/config"
	"github.com/formguard/go-formguard/pkg/models"
	"github.com/formguard/go-formguard/pkg/verification"
)

// fakeClock drives the engine deterministically.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, cfg config.Config) (*Engine, *fakeClock) {
	t.Helper()
	// Keep the background ticker out of the way; tests drive Tick directly.
	cfg.TickInterval = time.Hour
	clock := newFakeClock()
	eng, err := New(cfg, WithClock(clock.Now))
	require.NoError(t, err)
	eng.Start()
	t.Cleanup(eng.Stop)
	return eng, clock
}

func (c *fakeClock) event(kind models.EventKind) models.Event {
	return models.Event{Kind: kind, Time: c.now}
}

// feedHumanSession replays a plausible human interaction: curved mouse
// motion with jittered sampling, a click, and irregular typing with a pause.
func feedHumanSession(eng *Engine, clock *fakeClock) {
	rng := rand.New(rand.NewSource(42))

	clock.Advance(1200 * time.Millisecond)
	// Meandering small-step path: the heading drifts every sample, the way
	// real hand motion does at capture rate.
	dir := 0.3
	x, y := 150.0, 420.0
	for i := 0; i < 80; i++ {
		dir += (rng.Float64() - 0.5) * 1.2
		step := 2 + rng.Float64()*4
		x += step * math.Cos(dir)
		y += step * math.Sin(dir)
		eng.Observe(models.Event{
			Kind: models.EventPointerMove,
			Time: clock.now,
			X:    x,
			Y:    y,
		})
		clock.Advance(time.Duration(12+rng.Intn(28)) * time.Millisecond)
	}
	eng.Observe(clock.event(models.EventClick))
	eng.Observe(clock.event(models.EventFocus))
	clock.Advance(700 * time.Millisecond)

	for i := 0; i < 25; i++ {
		eng.Observe(clock.event(models.EventKeyDown))
		clock.Advance(time.Duration(85+rng.Intn(180)) * time.Millisecond)
		if i == 12 {
			clock.Advance(900 * time.Millisecond)
		}
	}

	// A few more clicks at irregular gaps (checkbox, dropdown, submit).
	for _, gap := range []time.Duration{420, 960, 300} {
		clock.Advance(gap * time.Millisecond)
		eng.Observe(clock.event(models.EventClick))
	}
}

// feedBotSession replays scripted automation: a straight constant-velocity
// line, metronomic clicks and metronomic keystrokes, all firing the instant
// the session starts.
func feedBotSession(eng *Engine, clock *fakeClock) {
	base := clock.now
	for i := 0; i < 60; i++ {
		eng.Observe(models.Event{
			Kind: models.EventPointerMove,
			Time: base.Add(time.Duration(i) * 10 * time.Millisecond),
			X:    float64(100 + i*10),
			Y:    300,
		})
	}
	for i := 0; i < 6; i++ {
		eng.Observe(models.Event{
			Kind: models.EventClick,
			Time: base.Add(time.Duration(i) * 100 * time.Millisecond),
		})
	}
	for i := 0; i < 20; i++ {
		eng.Observe(models.Event{
			Kind: models.EventKeyDown,
			Time: base.Add(time.Duration(i) * 30 * time.Millisecond),
		})
	}
	clock.Advance(time.Second)
}

func TestEngine_HumanSessionIsAllowed(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	feedHumanSession(eng, clock)
	clock.Advance(6 * time.Second)
	eng.Tick()

	report := eng.AnalysisSnapshot()
	assert.Equal(t, models.ClassHuman, report.Classification)
	assert.Greater(t, report.OverallScore, 0.7)
	assert.Equal(t, models.LevelVerified, report.Level)

	d := eng.Decide()
	assert.True(t, d.Allow)
	assert.Equal(t, verification.ReasonVerified, d.Reason)
}

func TestEngine_BotSessionIsBlocked(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	feedBotSession(eng, clock)
	clock.Advance(11 * time.Second)
	eng.Tick()

	report := eng.AnalysisSnapshot()
	assert.Equal(t, models.ClassBot, report.Classification)

	d := eng.Decide()
	require.False(t, d.Allow)
	assert.Equal(t, verification.ReasonBotBehavior, d.Reason)
}

func TestEngine_HoneypotBlocksPerfectSession(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	feedHumanSession(eng, clock)
	eng.Observe(models.Event{
		Kind:  models.EventFieldInput,
		Time:  clock.now,
		Field: "website",
		Value: "http://spam.example",
	})
	clock.Advance(11 * time.Second)
	eng.Tick()

	d := eng.Decide()
	require.False(t, d.Allow)
	assert.Equal(t, verification.ReasonHoneypot, d.Reason)
}

func TestEngine_InstantSubmitRejected(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	clock.Advance(500 * time.Millisecond)
	d := eng.Decide()

	require.False(t, d.Allow)
	assert.Equal(t, verification.ReasonInsufficientTime, d.Reason)
}

func TestEngine_NoPointerEvidenceRejected(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	// Keyboard-only session past the time gates.
	eng.Observe(clock.event(models.EventFocus))
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		clock.Advance(time.Duration(100+rng.Intn(200)) * time.Millisecond)
		eng.Observe(clock.event(models.EventKeyDown))
	}
	clock.Advance(11 * time.Second)
	eng.Tick()

	d := eng.Decide()
	require.False(t, d.Allow)
	assert.Equal(t, verification.ReasonNoPointer, d.Reason)
}

func TestEngine_SnapshotIsIdempotent(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())
	feedHumanSession(eng, clock)

	first := eng.AnalysisSnapshot()
	// Wall clock moves on but no new events or ticks arrive.
	clock.Advance(time.Hour)
	second := eng.AnalysisSnapshot()

	assert.Equal(t, first, second)
}

func TestEngine_LevelNeverDowngrades(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	feedHumanSession(eng, clock)
	clock.Advance(7 * time.Second)
	eng.Tick()
	require.Equal(t, models.LevelVerified, eng.Level())

	// A burst of flags collapses confidence, but the reached level holds.
	for i := 0; i < 5; i++ {
		eng.Observe(clock.event(models.EventPaste))
		clock.Advance(time.Second)
	}
	eng.Tick()

	assert.Equal(t, models.LevelVerified, eng.Level())
}

func TestEngine_ClassificationCallbackIsEdgeTriggered(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	var calls []models.Classification
	eng.OnClassificationChange(func(c models.Classification, _ float64) {
		calls = append(calls, c)
	})

	feedBotSession(eng, clock)
	eng.Tick()
	eng.Tick()
	eng.Tick()

	require.Len(t, calls, 1, "staying at an extreme must not re-fire")
	assert.Equal(t, models.ClassBot, calls[0])
}

func TestEngine_FlagCallback(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	var flags []models.AnomalyFlag
	eng.OnFlag(func(f models.AnomalyFlag) { flags = append(flags, f) })

	eng.Observe(models.Event{
		Kind: models.EventFieldInput, Time: clock.now,
		Field: "website", Value: "spam",
	})

	require.Len(t, flags, 1)
	assert.Equal(t, models.FlagHoneypot, flags[0].Type)
}

func TestEngine_CallbackPanicIsContained(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	eng.OnFlag(func(models.AnomalyFlag) { panic("observer bug") })
	eng.OnDecision(func(models.Decision) { panic("another observer bug") })

	assert.NotPanics(t, func() {
		eng.Observe(models.Event{
			Kind: models.EventFieldInput, Time: clock.now,
			Field: "website", Value: "spam",
		})
		clock.Advance(11 * time.Second)
		eng.Decide()
	})
}

func TestEngine_StoppedEngineDiscardsEvents(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())
	feedHumanSession(eng, clock)
	before := eng.AnalysisSnapshot()

	eng.Stop()
	eng.Observe(clock.event(models.EventPointerMove))
	eng.Observe(clock.event(models.EventKeyDown))

	after := eng.AnalysisSnapshot()
	assert.Equal(t, before.Features["pointer"].Samples, after.Features["pointer"].Samples)
	assert.False(t, after.TrackingActive)
}

func TestEngine_DecideWorksAfterStop(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())
	feedHumanSession(eng, clock)
	clock.Advance(7 * time.Second)
	eng.Tick()
	eng.Stop()

	d := eng.Decide()
	assert.True(t, d.Allow)
}

func TestEngine_ResetClearsEverything(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())

	feedBotSession(eng, clock)
	eng.Observe(models.Event{
		Kind: models.EventFieldInput, Time: clock.now,
		Field: "website", Value: "spam",
	})
	eng.Reset()

	report := eng.AnalysisSnapshot()
	assert.Equal(t, 0, report.FlagCount)
	assert.Equal(t, 1.0, report.Confidence)
	assert.Equal(t, models.LevelNone, report.Level)
	assert.Equal(t, 0, report.Features["pointer"].Samples)
}

func TestEngine_SetEnvironmentRaisesFlags(t *testing.T) {
	eng, _ := newTestEngine(t, config.Default())

	eng.SetEnvironment(models.EnvReport{
		UserAgent: "HeadlessChrome/120.0",
		Webdriver: true,
	})

	report := eng.AnalysisSnapshot()
	assert.GreaterOrEqual(t, report.FlagCount, 2)
	assert.Equal(t, 0.0, report.Confidence)
}

func TestEngine_EnvProbeDrivesDevtoolsCheck(t *testing.T) {
	eng, err := New(config.Default(), WithEnvProbe(func() models.EnvReport {
		return models.EnvReport{
			InnerWidth: 880, InnerHeight: 900,
			OuterWidth: 1280, OuterHeight: 1000,
		}
	}))
	require.NoError(t, err)
	eng.Start()
	defer eng.Stop()

	eng.Tick()

	flags := eng.AnalysisSnapshot().Flags
	require.NotEmpty(t, flags)
	assert.Equal(t, models.FlagDevtools, flags[0].Type)
}

func TestEngine_VerificationTokenRoundTrip(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())
	feedHumanSession(eng, clock)

	encoded := eng.VerificationToken().Encode()
	token, err := models.DecodeToken(encoded)
	require.NoError(t, err)

	assert.Equal(t, clock.now.UnixMilli(), token.Timestamp)
	assert.Greater(t, token.Score, 0.0)
	assert.Equal(t, 1.0, token.Confidence)
	assert.Greater(t, token.SessionDurationMs, int64(0))
}

func TestEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Weights.Pointer = 0.9

	_, err := New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrBadWeights)
}

func TestEngine_StartIsIdempotent(t *testing.T) {
	eng, clock := newTestEngine(t, config.Default())
	feedHumanSession(eng, clock)
	before := eng.AnalysisSnapshot().Features["pointer"].Samples

	eng.Start()

	assert.Equal(t, before, eng.AnalysisSnapshot().Features["pointer"].Samples)
}
