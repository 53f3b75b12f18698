package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cargo-tracker/internal/core/cache"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"
)

const trackingKeyPrefix = "tracking:"

// RedisHistoryStore implements ports.HistoryStore on top of the core cache,
// one JSON-encoded record per reference id. Entries optionally expire.
type RedisHistoryStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisHistoryStore creates a Redis-backed history store.
// A ttl of 0 keeps records forever.
func NewRedisHistoryStore(c cache.Cache, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{
		cache: c,
		ttl:   ttl,
	}
}

// Lookup retrieves the record stored for the given reference id.
func (s *RedisHistoryStore) Lookup(ctx context.Context, referenceID string) (*domain.TrackingRecord, error) {
	data, err := s.cache.Get(ctx, trackingKeyPrefix+referenceID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ports.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", referenceID, err)
	}

	var rec domain.TrackingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("malformed history entry for %s: %w", referenceID, err)
	}
	return &rec, nil
}

// Save persists the record, replacing any existing entry.
func (s *RedisHistoryStore) Save(ctx context.Context, record *domain.TrackingRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", record.ReferenceID, err)
	}

	if err := s.cache.Set(ctx, trackingKeyPrefix+record.ReferenceID, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save history for %s: %w", record.ReferenceID, err)
	}
	return nil
}
