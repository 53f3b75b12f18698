package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo-tracker/internal/core/logger"
	routedomain "cargo-tracker/internal/features/routemap/domain"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// ErrEmptyExtraction is returned when the agent produced output without the
// mandatory voyage number and arrival date.
var ErrEmptyExtraction = errors.New("extraction returned no usable fields")

// TrackOptions control one tracking run.
type TrackOptions struct {
	// Headless runs the browser without a visible UI.
	Headless bool
	// Force bypasses the stored record and re-extracts.
	Force bool
	// RenderMap renders the route map artifact when both ports are known.
	RenderMap bool
}

// TrackResult is the outcome of one tracking run.
type TrackResult struct {
	// Record is the tracking record, cached or freshly extracted.
	Record *domain.TrackingRecord
	// FromCache is true when the record came from the history store and no
	// browser or extraction work happened.
	FromCache bool
	// Map is the route map outcome; zero value when rendering was not requested.
	Map routedomain.Outcome
}

// TrackingService orchestrates one tracking run: history lookup, browser
// session, extraction, persistence and the optional route map. The pipeline
// is strictly sequential and never retried; a failed run leaves the history
// untouched and must be re-invoked by the caller.
type TrackingService struct {
	store    ports.HistoryStore
	sessions ports.SessionFactory
	agent    ports.ExtractionAgent
	mapper   ports.RouteMapper
	logger   *zap.Logger
	// now is swappable in tests.
	now func() time.Time
}

// NewTrackingService creates a TrackingService. mapper may be nil when map
// rendering is not configured; RenderMap runs then report a skipped map.
func NewTrackingService(store ports.HistoryStore, sessions ports.SessionFactory, agent ports.ExtractionAgent, mapper ports.RouteMapper) *TrackingService {
	return &TrackingService{
		store:    store,
		sessions: sessions,
		agent:    agent,
		mapper:   mapper,
		logger:   logger.Named("tracker"),
		now:      time.Now,
	}
}

// Track runs the pipeline for one reference id.
func (s *TrackingService) Track(ctx context.Context, referenceID string, opts TrackOptions) (*TrackResult, error) {
	if referenceID == "" {
		return nil, errors.New("reference id is required")
	}

	if !opts.Force {
		cached, err := s.store.Lookup(ctx, referenceID)
		switch {
		case err == nil:
			s.logger.Info("History hit, skipping extraction",
				zap.String("reference_id", referenceID),
			)
			return &TrackResult{Record: cached, FromCache: true}, nil
		case errors.Is(err, ports.ErrRecordNotFound):
			// fall through to extraction
		default:
			return nil, fmt.Errorf("history lookup failed: %w", err)
		}
	}

	record, err := s.extract(ctx, referenceID, opts.Headless)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist tracking record: %w", err)
	}

	result := &TrackResult{Record: record}
	if opts.RenderMap {
		result.Map = s.renderMap(ctx, record)
	}
	return result, nil
}

// extract owns the browser session for the duration of one extraction. The
// session is closed on every exit path.
func (s *TrackingService) extract(ctx context.Context, referenceID string, headless bool) (*domain.TrackingRecord, error) {
	s.logger.Info("Starting extraction",
		zap.String("reference_id", referenceID),
		zap.Bool("headless", headless),
	)

	page, closeSession, err := s.sessions.Open(ctx, headless)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer closeSession()

	extraction, err := s.agent.Extract(ctx, page, referenceID)
	if err != nil {
		return nil, err
	}
	if !extraction.Complete() {
		return nil, fmt.Errorf("%w for %s", ErrEmptyExtraction, referenceID)
	}

	return domain.NewRecord(referenceID, extraction, s.now()), nil
}

func (s *TrackingService) renderMap(ctx context.Context, record *domain.TrackingRecord) routedomain.Outcome {
	if s.mapper == nil {
		return routedomain.Skipped("route map rendering not configured")
	}
	if !record.HasRoute() {
		return routedomain.Skipped("origin or destination port unknown")
	}
	return s.mapper.Render(ctx, record.OriginPort, record.DestinationPort)
}
