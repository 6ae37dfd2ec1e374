package storage

import (
	"context"
	"sync"

	"github.com/formguard/go-formguard/pkg/models"
)

// MemoryStore keeps decision histories in process memory. Suitable for
// single-instance deployments and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string][]models.DecisionRecord
	maxPerSess int
}

// DefaultMaxRecordsPerSession bounds each session's history; oldest
// decisions are evicted first.
const DefaultMaxRecordsPerSession = 100

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string][]models.DecisionRecord),
		maxPerSess: DefaultMaxRecordsPerSession,
	}
}

// Record appends a decision, evicting the oldest when the session cap is hit.
func (m *MemoryStore) Record(_ context.Context, rec models.DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hist := append(m.records[rec.SessionID], rec)
	if len(hist) > m.maxPerSess {
		hist = hist[len(hist)-m.maxPerSess:]
	}
	m.records[rec.SessionID] = hist
	return nil
}

// History returns the session's decisions, oldest first.
func (m *MemoryStore) History(_ context.Context, sessionID string, limit int) ([]models.DecisionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if limit > 0 && len(hist) > limit {
		hist = hist[len(hist)-limit:]
	}
	out := make([]models.DecisionRecord, len(hist))
	copy(out, hist)
	return out, nil
}

// Purge drops a session's history.
func (m *MemoryStore) Purge(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	return nil
}
