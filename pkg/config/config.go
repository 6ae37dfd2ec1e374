// Package config holds the engine configuration: channel weights,
// classification thresholds, gate limits and scorer tuning constants.
//
// Configuration errors are programmer mistakes, so validation fails fast at
// construction; nothing here is a runtime condition.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Validation sentinels.
var (
	ErrBadWeights   = errors.New("channel weights must sum to 1.0")
	ErrBadThreshold = errors.New("threshold out of range")
	ErrBadDuration  = errors.New("duration must be positive")
	ErrBadScale     = errors.New("variance scale must be positive")
)

// weightEpsilon is the allowed deviation of the weight sum from 1.0.
const weightEpsilon = 1e-6

// Weights are the per-channel fusion weights. They must sum to 1.0.
type Weights struct {
	Pointer  float64 `toml:"pointer"`
	Touch    float64 `toml:"touch"`
	Click    float64 `toml:"click"`
	Keyboard float64 `toml:"keyboard"`
	Timing   float64 `toml:"timing"`
}

// Sum returns the total of all channel weights.
func (w Weights) Sum() float64 {
	return w.Pointer + w.Touch + w.Click + w.Keyboard + w.Timing
}

// Config is the full engine configuration.
type Config struct {
	Weights Weights

	// Classification thresholds: score <= Bot means bot, >= Human means
	// human, otherwise uncertain.
	BotThreshold   float64
	HumanThreshold float64

	// TickInterval is the cadence of the periodic score re-evaluation, the
	// only scheduled operation in the engine.
	TickInterval time.Duration

	// Gate limits.
	MinTrackingTime  time.Duration
	MinFillTime      time.Duration
	MinPointerEvents int
	RequirePointer   bool
	RequiredChannels int

	// CompositeAcceptScore is the 0-100 composite threshold for accepting
	// an enhanced-level session.
	CompositeAcceptScore float64

	// HoneypotField names the trap field; a field-input event on it with a
	// non-empty value marks the session as automated.
	HoneypotField string

	// Scorer tuning.
	MinSampleSize             int
	SuspiciousLinearity       float64
	VelocityVarianceScale     float64 // (px/s)^2
	AccelerationVarianceScale float64 // (px/s^2)^2
	SwipeVarianceScale        float64 // (px/s)^2
	ClickVarianceScale        float64 // ms^2
	KeystrokeVarianceScale    float64 // ms^2
	DelayVarianceScale        float64 // ms^2
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Weights: Weights{
			Pointer:  0.25,
			Touch:    0.20,
			Click:    0.20,
			Keyboard: 0.20,
			Timing:   0.15,
		},
		BotThreshold:   0.3,
		HumanThreshold: 0.7,

		TickInterval: time.Second,

		MinTrackingTime:  10 * time.Second,
		MinFillTime:      3 * time.Second,
		MinPointerEvents: 10,
		RequirePointer:   true,
		RequiredChannels: 2,

		CompositeAcceptScore: 70,

		HoneypotField: "website",

		MinSampleSize:             5,
		SuspiciousLinearity:       0.95,
		VelocityVarianceScale:     20000,
		AccelerationVarianceScale: 50000,
		SwipeVarianceScale:        20000,
		ClickVarianceScale:        250000,
		KeystrokeVarianceScale:    10000,
		DelayVarianceScale:        1e6,
	}
}

// Validate checks the configuration and returns a descriptive error for the
// first problem found.
func (c Config) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > weightEpsilon {
		return fmt.Errorf("%w: got %.6f", ErrBadWeights, c.Weights.Sum())
	}
	for name, v := range map[string]float64{
		"pointer":  c.Weights.Pointer,
		"touch":    c.Weights.Touch,
		"click":    c.Weights.Click,
		"keyboard": c.Weights.Keyboard,
		"timing":   c.Weights.Timing,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight %.3f is negative", ErrBadWeights, name, v)
		}
	}
	if c.BotThreshold < 0 || c.BotThreshold > 1 {
		return fmt.Errorf("%w: bot threshold %.3f", ErrBadThreshold, c.BotThreshold)
	}
	if c.HumanThreshold < 0 || c.HumanThreshold > 1 {
		return fmt.Errorf("%w: human threshold %.3f", ErrBadThreshold, c.HumanThreshold)
	}
	if c.BotThreshold >= c.HumanThreshold {
		return fmt.Errorf("%w: bot threshold %.3f must be below human threshold %.3f",
			ErrBadThreshold, c.BotThreshold, c.HumanThreshold)
	}
	if c.SuspiciousLinearity <= 0 || c.SuspiciousLinearity >= 1 {
		return fmt.Errorf("%w: suspicious linearity %.3f", ErrBadThreshold, c.SuspiciousLinearity)
	}
	if c.CompositeAcceptScore < 0 || c.CompositeAcceptScore > 100 {
		return fmt.Errorf("%w: composite accept score %.1f", ErrBadThreshold, c.CompositeAcceptScore)
	}
	for name, d := range map[string]time.Duration{
		"tick interval":     c.TickInterval,
		"min tracking time": c.MinTrackingTime,
		"min fill time":     c.MinFillTime,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s is %v", ErrBadDuration, name, d)
		}
	}
	if c.MinPointerEvents < 0 {
		return fmt.Errorf("min pointer events must not be negative, got %d", c.MinPointerEvents)
	}
	if c.MinSampleSize < 1 {
		return fmt.Errorf("min sample size must be at least 1, got %d", c.MinSampleSize)
	}
	for name, s := range map[string]float64{
		"velocity":     c.VelocityVarianceScale,
		"acceleration": c.AccelerationVarianceScale,
		"swipe":        c.SwipeVarianceScale,
		"click":        c.ClickVarianceScale,
		"keystroke":    c.KeystrokeVarianceScale,
		"delay":        c.DelayVarianceScale,
	} {
		if s <= 0 {
			return fmt.Errorf("%w: %s", ErrBadScale, name)
		}
	}
	return nil
}
