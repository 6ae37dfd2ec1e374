package models

import "time"

// ChannelFeatures is the raw feature summary for one channel, included in
// analysis snapshots for explainability.
type ChannelFeatures struct {
	Samples int                `json:"samples"`
	Values  map[string]float64 `json:"values,omitempty"`
}

// Report is the structured analysis snapshot exposed to collaborators.
// It is a pure read of engine state: two snapshots taken with no intervening
// observation or tick are identical (SessionDuration is measured as of the
// last state mutation, not the wall clock).
type Report struct {
	OverallScore    float64                    `json:"overall_score"`
	ChannelScores   map[string]float64         `json:"channel_scores"`
	Features        map[string]ChannelFeatures `json:"features"`
	Classification  Classification             `json:"classification"`
	Level           VerificationLevel          `json:"level"`
	Confidence      float64                    `json:"confidence"`
	FlagCount       int                        `json:"flag_count"`
	Flags           []AnomalyFlag              `json:"flags,omitempty"`
	SessionDuration time.Duration              `json:"session_duration"`
	TrackingActive  bool                       `json:"tracking_active"`
}

// EnvReport carries host-environment observations supplied by the UI
// collaborator (or a server-side probe). The core never touches a browser
// API; whatever the host can measure goes in here and is inspected by the
// environment checks at setup time.
type EnvReport struct {
	UserAgent string `json:"user_agent,omitempty"`

	// Webdriver mirrors navigator.webdriver.
	Webdriver bool `json:"webdriver,omitempty"`

	// AutomationMarkers lists host-detected automation globals
	// (e.g. "__selenium_unwrapped", "callPhantom").
	AutomationMarkers []string `json:"automation_markers,omitempty"`

	// Window geometry for the viewport-ratio and devtools heuristics.
	InnerWidth  int `json:"inner_width,omitempty"`
	InnerHeight int `json:"inner_height,omitempty"`
	OuterWidth  int `json:"outer_width,omitempty"`
	OuterHeight int `json:"outer_height,omitempty"`

	PluginCount  int  `json:"plugin_count,omitempty"`
	HasLanguages bool `json:"has_languages,omitempty"`
}
