package handler

import (
	"errors"

	routedomain "cargo-tracker/internal/features/routemap/domain"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"
	"cargo-tracker/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	trackingService *service.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// TrackingResponse is the success payload.
type TrackingResponse struct {
	// Record is the tracking record, cached or freshly extracted.
	Record *domain.TrackingRecord `json:"record"`
	// FromCache is true when no extraction ran.
	FromCache bool `json:"from_cache"`
	// Map is the route map outcome, present when rendering was requested.
	Map *routedomain.Outcome `json:"map,omitempty"`
}

// GetTracking serves one tracking run. Query parameters:
// refresh=true bypasses the stored record, map=true renders the route map.
// The browser always runs headless in serve mode.
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	referenceID := c.Params("reference")
	if referenceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "reference id is required",
			RayID:   rayID(c),
		})
	}

	result, err := h.trackingService.Track(c.Context(), referenceID, service.TrackOptions{
		Headless:  true,
		Force:     c.QueryBool("refresh"),
		RenderMap: c.QueryBool("map"),
	})
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, ports.ErrRecordNotFound) || errors.Is(err, service.ErrEmptyExtraction) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	resp := TrackingResponse{
		Record:    result.Record,
		FromCache: result.FromCache,
	}
	if result.Map.State != "" {
		resp.Map = &result.Map
	}
	return c.JSON(resp)
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
