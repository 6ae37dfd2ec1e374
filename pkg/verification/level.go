// Package verification derives the staged trust level and runs the final
// decision gate at submission time.
package verification

import (
	"time"

	"github.com/formguard/go-formguard/pkg/models"
)

// Level thresholds from the reference rule table.
const (
	verifiedConfidence = 0.8
	enhancedConfidence = 0.6
	basicConfidence    = 0.4
	enhancedMaxFlags   = 1
)

// LevelFor derives the verification level from the current confidence, flag
// count and elapsed session time.
//
// This is a pure function: it never downgrades anything by itself. The
// engine keeps the maximum level reached; only an explicit reset drops it.
func LevelFor(confidence float64, flagCount int, elapsed, minTrackingTime time.Duration) models.VerificationLevel {
	switch {
	case confidence >= verifiedConfidence && flagCount == 0 && elapsed >= minTrackingTime:
		return models.LevelVerified
	case confidence >= enhancedConfidence && flagCount <= enhancedMaxFlags:
		return models.LevelEnhanced
	case confidence >= basicConfidence:
		return models.LevelBasic
	default:
		return models.LevelNone
	}
}
