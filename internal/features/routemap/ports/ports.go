package ports

import (
	"context"
	"errors"

	"cargo-tracker/internal/features/routemap/domain"
)

// ErrLocationNotFound is returned by Locate when the geocoder has no result.
var ErrLocationNotFound = errors.New("location not found")

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	// Locate resolves the given name. Returns ErrLocationNotFound when the
	// geocoding service has no match.
	Locate(ctx context.Context, name string) (*domain.Point, error)
}

// Renderer writes a map artifact for a route between two points.
type Renderer interface {
	// Render writes the artifact and returns its path.
	Render(origin, destination domain.Point) (string, error)
}
