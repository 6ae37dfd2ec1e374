package models

import "time"

// FlagType identifies an anomaly detection category.
type FlagType string

const (
	FlagHoneypot         FlagType = "honeypot_filled"
	FlagWebdriver        FlagType = "webdriver_detected"
	FlagAutomationMarker FlagType = "automation_marker"
	FlagDevtools         FlagType = "devtools_open"
	FlagFastTyping       FlagType = "fast_typing"
	FlagUniformTyping    FlagType = "uniform_typing"
	FlagPaste            FlagType = "paste_detected"
	FlagVisibilityBurst  FlagType = "visibility_burst"
)

// AnomalyFlag is an immutable record of one detected suspicious condition.
// Flags are append-only: never mutated after creation, only cleared in bulk
// on session reset.
type AnomalyFlag struct {
	Type    FlagType  `json:"type"`
	Detail  string    `json:"detail,omitempty"`
	Time    time.Time `json:"time"`
	Penalty float64   `json:"penalty"`
}

// flagPenalties maps each flag type to the confidence penalty it applies.
var flagPenalties = map[FlagType]float64{
	FlagHoneypot:         0.8,
	FlagWebdriver:        0.9,
	FlagAutomationMarker: 0.7,
	FlagDevtools:         0.2,
	FlagFastTyping:       0.3,
	FlagUniformTyping:    0.4,
	FlagPaste:            0.1,
	FlagVisibilityBurst:  0.1,
}

// defaultFlagPenalty applies to flag types without an explicit entry.
const defaultFlagPenalty = 0.1

// PenaltyFor returns the confidence penalty for a flag type.
func PenaltyFor(t FlagType) float64 {
	if p, ok := flagPenalties[t]; ok {
		return p
	}
	return defaultFlagPenalty
}
