package verification

import (
	"time"

	"github.com/formguard/go-formguard/pkg/config"
	"github.com/formguard/go-formguard/pkg/models"
)

// Gate reason strings. These are the user-visible failure surface of the
// engine; callers branch on them for remediation UI.
const (
	ReasonHoneypot         = "honeypot filled"
	ReasonInsufficientTime = "insufficient tracking time"
	ReasonTooFast          = "form filled too quickly"
	ReasonNoPointer        = "insufficient mouse movement"
	ReasonBotBehavior      = "bot behavior detected"
	ReasonLowLevel         = "verification level too low"
	ReasonVerified         = "verified"
	ReasonEnhanced         = "enhanced verification passed"
)

// GateInput is the session state snapshot the gate judges.
type GateInput struct {
	HoneypotFilled     bool
	Elapsed            time.Duration
	PointerEvents      int
	Classification     models.Classification
	Level              models.VerificationLevel
	Confidence         float64
	OverallScore       float64
	InteractedChannels int
	FlagCount          int
}

// Gate runs the ordered admission checks of the final decision.
type Gate struct {
	cfg config.Config
}

// NewGate creates a gate with the given configuration.
func NewGate(cfg config.Config) *Gate {
	return &Gate{cfg: cfg}
}

// Decide runs the checks in order and stops at the first failure.
func (g *Gate) Decide(in GateInput) models.Decision {
	score := g.CompositeScore(in)

	reject := func(reason string, recs ...string) models.Decision {
		return models.Decision{
			Allow:           false,
			Reason:          reason,
			Confidence:      in.Confidence,
			Score:           score,
			Recommendations: recs,
		}
	}

	// 1. Honeypot trumps everything, including a perfect behavioral record.
	if in.HoneypotFilled {
		return reject(ReasonHoneypot, "block — likely automated")
	}

	// 2. Not enough observation to judge anything.
	if in.Elapsed < g.cfg.MinTrackingTime {
		return reject(ReasonInsufficientTime, "keep tracking before resubmitting")
	}

	// 3. Humanly impossible fill time.
	if in.Elapsed < g.cfg.MinFillTime {
		return reject(ReasonTooFast, "show CAPTCHA")
	}

	// 4. Pointer evidence, when the deployment requires it.
	if g.cfg.RequirePointer && in.PointerEvents < g.cfg.MinPointerEvents {
		return reject(ReasonNoPointer, "show CAPTCHA")
	}

	// 5. Classifier verdict.
	if in.Classification == models.ClassBot {
		return reject(ReasonBotBehavior, "block — likely automated")
	}

	// 6. Verification tier.
	switch {
	case in.Level == models.LevelVerified:
		return models.Decision{
			Allow:      true,
			Reason:     ReasonVerified,
			Confidence: in.Confidence,
			Score:      score,
		}
	case in.Level == models.LevelEnhanced && score >= g.cfg.CompositeAcceptScore:
		return models.Decision{
			Allow:      true,
			Reason:     ReasonEnhanced,
			Confidence: in.Confidence,
			Score:      score,
		}
	default:
		return reject(ReasonLowLevel, "show CAPTCHA")
	}
}

// CompositeScore computes the 0-100 rollup used by the gate's final tier.
func (g *Gate) CompositeScore(in GateInput) float64 {
	score := in.Confidence*100 + in.OverallScore*20
	if in.InteractedChannels >= g.cfg.RequiredChannels {
		score += 10
	}
	if in.Elapsed >= g.cfg.MinFillTime {
		score += 5
	}
	score -= float64(in.FlagCount) * 15
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
