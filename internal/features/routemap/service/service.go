package service

import (
	"context"
	"fmt"

	"cargo-tracker/internal/core/logger"
	"cargo-tracker/internal/features/routemap/domain"
	"cargo-tracker/internal/features/routemap/ports"

	"go.uber.org/zap"
)

// RouteMapService renders the optional route map for a shipment. Any failure
// degrades to a skipped outcome; a missing map never fails a tracking run.
type RouteMapService struct {
	geocoder ports.Geocoder
	renderer ports.Renderer
	logger   *zap.Logger
}

// NewRouteMapService creates a RouteMapService.
func NewRouteMapService(geocoder ports.Geocoder, renderer ports.Renderer) *RouteMapService {
	return &RouteMapService{
		geocoder: geocoder,
		renderer: renderer,
		logger:   logger.Named("routemap"),
	}
}

// Render geocodes both ports and writes the map artifact.
func (s *RouteMapService) Render(ctx context.Context, originPort, destinationPort string) domain.Outcome {
	origin, err := s.geocoder.Locate(ctx, originPort)
	if err != nil {
		return s.skip(fmt.Sprintf("could not geocode origin port %q", originPort), err)
	}

	destination, err := s.geocoder.Locate(ctx, destinationPort)
	if err != nil {
		return s.skip(fmt.Sprintf("could not geocode destination port %q", destinationPort), err)
	}

	path, err := s.renderer.Render(*origin, *destination)
	if err != nil {
		return s.skip("could not write route map", err)
	}

	s.logger.Info("Route map rendered",
		zap.String("origin", originPort),
		zap.String("destination", destinationPort),
		zap.String("path", path),
	)
	return domain.Rendered(path)
}

func (s *RouteMapService) skip(reason string, err error) domain.Outcome {
	s.logger.Warn("Route map skipped", zap.String("reason", reason), zap.Error(err))
	return domain.Skipped(reason)
}
