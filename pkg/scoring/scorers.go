// Package scoring maps channel features to bot-likelihood scores and fuses
// them into the overall classification.
//
// Every scorer is a pure, stateless function returning a value in [0,1]
// around a neutral baseline of 0.5: lower means bot-like, higher means
// human-like. Variance terms are normalized by tunable scale constants and
// clamped before summation so no path can leave the declared range.
package scoring

import (
	"github.com/formguard/go-formguard/pkg/channels"
	"github.com/formguard/go-formguard/pkg/config"
)

const baseline = 0.5

// PointerScore scores the pointer channel.
//
// Absence of pointer motion is itself a strong automation signal, so below
// the minimum sample size the channel scores 0.1 rather than neutral.
func PointerScore(f channels.PointerFeatures, cfg config.Config) float64 {
	if f.Samples < cfg.MinSampleSize {
		return 0.1
	}
	s := baseline
	if f.Linearity > cfg.SuspiciousLinearity {
		// Penalty grows with how far past the threshold the path is,
		// up to the full 0.4.
		excess := (f.Linearity - cfg.SuspiciousLinearity) / (1 - cfg.SuspiciousLinearity)
		s -= 0.4 * clamp01(excess)
	}
	s += 0.3 * clamp01(f.VelocityVariance/cfg.VelocityVarianceScale)
	s += 0.2 * clamp01(f.AccelerationVariance/cfg.AccelerationVarianceScale)
	return clamp01(s)
}

// TouchScore scores the touch channel. Desktop sessions with no touch events
// at all stay neutral.
func TouchScore(f channels.TouchFeatures, cfg config.Config) float64 {
	if f.Samples == 0 {
		return baseline
	}
	s := baseline
	if f.MultiTouch {
		s += 0.2
	}
	s += 0.3 * clamp01(f.SwipeVelocityVariance/cfg.SwipeVarianceScale)
	return clamp01(s)
}

// ClickScore scores the click channel. A high consistency ratio means the
// inter-click intervals cluster mechanically around the mean.
func ClickScore(f channels.ClickFeatures, cfg config.Config) float64 {
	if f.IntervalCount == 0 {
		return baseline
	}
	s := baseline
	s += 0.4 * clamp01(f.IntervalVariance/cfg.ClickVarianceScale)
	if f.ConsistencyRatio > 0.8 {
		s -= 0.3
	}
	return clamp01(s)
}

// KeyboardScore scores the keyboard channel. Natural thinking pauses between
// keystrokes raise the score.
func KeyboardScore(f channels.KeyboardFeatures, cfg config.Config) float64 {
	if f.IntervalCount == 0 {
		return baseline
	}
	s := baseline
	s += 0.4 * clamp01(f.IntervalVariance/cfg.KeystrokeVarianceScale)
	s += 0.1 * f.NaturalPauseRatio
	return clamp01(s)
}

// Timing windows for the first-interaction delay, in milliseconds.
const (
	fastFirstInteractionMs   = 100
	naturalDelayLowerBoundMs = 500
	naturalDelayUpperBoundMs = 10000
)

// TimingScore scores the timing channel. Interacting within 100ms of session
// start is bot-like; a delay in the human reading window raises the score.
func TimingScore(f channels.TimingFeatures, cfg config.Config) float64 {
	s := baseline
	if f.FirstDelayMs >= 0 {
		switch {
		case f.FirstDelayMs < fastFirstInteractionMs:
			s -= 0.3
		case f.FirstDelayMs >= naturalDelayLowerBoundMs && f.FirstDelayMs <= naturalDelayUpperBoundMs:
			s += 0.3
		}
	}
	s += 0.2 * clamp01(f.DelayVarianceMs2/cfg.DelayVarianceScale)
	return clamp01(s)
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
