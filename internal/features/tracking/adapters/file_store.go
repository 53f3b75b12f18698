package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cargo-tracker/internal/core/logger"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// FileHistoryStore persists tracking records as a single JSON document on
// disk: an insertion-ordered array, unique by reference id. The document is
// loaded fully on every lookup and rewritten fully on every save.
//
// A malformed existing file surfaces a parse error rather than being treated
// as empty; silently discarding a user's history is worse than making them
// fix or delete the file.
type FileHistoryStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileHistoryStore creates a store backed by the JSON document at path.
// The file does not need to exist yet.
func NewFileHistoryStore(path string) *FileHistoryStore {
	return &FileHistoryStore{
		path:   path,
		logger: logger.Named("history"),
	}
}

// Lookup retrieves the record stored for the given reference id.
func (s *FileHistoryStore) Lookup(ctx context.Context, referenceID string) (*domain.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ReferenceID == referenceID {
			return rec, nil
		}
	}
	return nil, ports.ErrRecordNotFound
}

// Save persists the record, replacing any existing entry with the same
// reference id and appending otherwise. The previous file is left untouched
// when anything fails.
func (s *FileHistoryStore) Save(ctx context.Context, record *domain.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, rec := range records {
		if rec.ReferenceID == record.ReferenceID {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	if err := s.persist(records); err != nil {
		return err
	}

	s.logger.Debug("History saved",
		zap.String("reference_id", record.ReferenceID),
		zap.Bool("replaced", replaced),
		zap.Int("total_records", len(records)),
	)
	return nil
}

// load reads the full history document. A missing or empty file yields an
// empty history.
func (s *FileHistoryStore) load() ([]*domain.TrackingRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []*domain.TrackingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed history file %s: %w", s.path, err)
	}
	return records, nil
}

// persist rewrites the document atomically: write a temp file in the same
// directory, then rename over the target.
func (s *FileHistoryStore) persist(records []*domain.TrackingRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace history file %s: %w", s.path, err)
	}
	return nil
}
