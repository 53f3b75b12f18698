package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cargo-tracker/internal/core/httpclient"
	"cargo-tracker/internal/features/routemap/domain"
	"cargo-tracker/internal/features/routemap/ports"
)

// nominatimUserAgent identifies us to the geocoding service; Nominatim
// rejects anonymous clients.
const nominatimUserAgent = "cargo-tracker/1.0"

// NominatimGeocoder implements ports.Geocoder against the Nominatim search API.
type NominatimGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewNominatimGeocoder creates a geocoder for the given Nominatim base URL.
func NewNominatimGeocoder(baseURL string) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: baseURL,
		client:  httpclient.NewClientWithUserAgent(10*time.Second, nominatimUserAgent),
	}
}

// nominatimResult represents one entry from the search response.
// Coordinates come back as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Locate resolves a port name. The query is suffixed with "port" to bias
// results towards harbors rather than towns of the same name.
func (g *NominatimGeocoder) Locate(ctx context.Context, name string) (*domain.Point, error) {
	q := url.Values{}
	q.Set("q", name+" port")
	q.Set("format", "json")
	q.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service returned status: %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ports.ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude for %q: %w", name, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude for %q: %w", name, err)
	}

	return &domain.Point{Name: name, Lat: lat, Lon: lon}, nil
}
