package models

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Decision is the output of the final decision gate, produced once per
// submission attempt. It is a value object: not stored by the engine,
// returned to the caller.
type Decision struct {
	Allow bool `json:"allow"`

	// Reason explains the first failed check, or the accepting tier.
	Reason string `json:"reason"`

	// Confidence is the anomaly-driven human-likelihood value in [0,1].
	Confidence float64 `json:"confidence"`

	// Score is the composite rollup in [0,100] used by the gate's final tier.
	Score float64 `json:"score"`

	// Recommendations suggest remediation to the caller, in order.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Token is the opaque verification payload a caller may forward to a
// server-side auditor. The engine only shapes the payload; signing and
// transport are the collaborator's responsibility.
type Token struct {
	Timestamp         int64   `json:"timestamp"`
	Score             float64 `json:"score"`
	Confidence        float64 `json:"confidence"`
	SessionDurationMs int64   `json:"sessionDurationMs"`
}

// Encode serializes the token as base64url JSON.
func (t Token) Encode() string {
	payload, _ := json.Marshal(t)
	return base64.URLEncoding.EncodeToString(payload)
}

// DecodeToken parses a token previously produced by Encode.
func DecodeToken(s string) (Token, error) {
	var t Token
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, err
	}
	return t, nil
}

// DecisionRecord is the persistence shape for a decision, suitable for the
// storage.DecisionStore backends used by server-side auditors.
type DecisionRecord struct {
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
	Allow      bool      `json:"allow"`
	Reason     string    `json:"reason"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	DurationMs int64     `json:"duration_ms"`
}
