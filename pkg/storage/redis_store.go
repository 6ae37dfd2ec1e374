package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/formguard/go-formguard/pkg/models"
)

// RedisStore persists decision histories in Redis, one list per session.
// Suitable when multiple backend instances serve the same forms.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	maxPerSess int64
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// KeyPrefix namespaces session keys; defaults to "formguard:decisions".
	KeyPrefix string
	// TTL expires idle session histories; zero keeps them forever.
	TTL time.Duration
	// MaxPerSession caps each history; zero uses
	// DefaultMaxRecordsPerSession.
	MaxPerSession int64
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "formguard:decisions"
	}
	if opts.MaxPerSession <= 0 {
		opts.MaxPerSession = DefaultMaxRecordsPerSession
	}
	return &RedisStore{
		client:     client,
		keyPrefix:  opts.KeyPrefix,
		ttl:        opts.TTL,
		maxPerSess: opts.MaxPerSession,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, sessionID)
}

// Record appends a decision and trims the list to the session cap.
func (r *RedisStore) Record(ctx context.Context, rec models.DecisionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	key := r.key(rec.SessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.maxPerSess, -1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store decision record: %w", err)
	}
	return nil
}

// History returns the session's decisions, oldest first.
func (r *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]models.DecisionRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	raw, err := r.client.LRange(ctx, r.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch decision history: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	out := make([]models.DecisionRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.DecisionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode decision record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Purge drops a session's history.
func (r *RedisStore) Purge(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("purge decision history: %w", err)
	}
	return nil
}
