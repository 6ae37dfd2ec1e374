package scoring

import (
	"github.com/formguard/go-formguard/pkg/config"
	"github.com/formguard/go-formguard/pkg/models"
)

// ChannelScores holds the five per-channel scores, each in [0,1].
type ChannelScores struct {
	Pointer  float64
	Touch    float64
	Click    float64
	Keyboard float64
	Timing   float64
}

// Map returns the scores keyed by channel name, for reports.
func (s ChannelScores) Map() map[string]float64 {
	return map[string]float64{
		"pointer":  s.Pointer,
		"touch":    s.Touch,
		"click":    s.Click,
		"keyboard": s.Keyboard,
		"timing":   s.Timing,
	}
}

// Fuser computes the weighted overall score and classifies it against the
// configured thresholds.
type Fuser struct {
	cfg config.Config
}

// NewFuser validates the configuration and returns a fuser. Weight or
// threshold errors are programmer mistakes and fail fast.
func NewFuser(cfg config.Config) (*Fuser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Fuser{cfg: cfg}, nil
}

// Fuse computes the weighted overall score, clamped to [0,1].
func (f *Fuser) Fuse(s ChannelScores) float64 {
	w := f.cfg.Weights
	total := s.Pointer*w.Pointer +
		s.Touch*w.Touch +
		s.Click*w.Click +
		s.Keyboard*w.Keyboard +
		s.Timing*w.Timing
	return clamp01(total)
}

// Classify maps an overall score to the three-way classification.
func (f *Fuser) Classify(score float64) models.Classification {
	switch {
	case score <= f.cfg.BotThreshold:
		return models.ClassBot
	case score >= f.cfg.HumanThreshold:
		return models.ClassHuman
	default:
		return models.ClassUncertain
	}
}
