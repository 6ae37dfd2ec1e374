// Package storage defines the decision audit store and its in-memory and
// Redis implementations. Stores keep a bounded per-session history of gate
// decisions so operators can review why submissions were admitted or
// rejected.
package storage

import (
	"context"
	"errors"

	"github.com/formguard/go-formguard/pkg/models"
)

// ErrNotFound is returned when a session has no recorded decisions.
var ErrNotFound = errors.New("storage: session not found")

// DecisionStore persists gate decisions keyed by session.
type DecisionStore interface {
	// Record appends a decision to the session's history.
	Record(ctx context.Context, rec models.DecisionRecord) error

	// History returns the session's decisions, oldest first, capped at
	// limit (limit <= 0 means no cap).
	History(ctx context.Context, sessionID string, limit int) ([]models.DecisionRecord, error)

	// Purge drops all decisions for a session.
	Purge(ctx context.Context, sessionID string) error
}
