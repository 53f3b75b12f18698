package domain

import (
	"strings"
	"time"
)

// TrackingRecord represents the stored result of one successful tracking run.
type TrackingRecord struct {
	// ReferenceID is the booking, container or bill-of-lading number used as the lookup key.
	ReferenceID string `json:"reference_id"`
	// VoyageNumber is the vessel voyage identifier, e.g. "YM MANDATE 0096W".
	VoyageNumber string `json:"voyage_number"`
	// ArrivalDate is the estimated arrival timestamp as shown by the carrier site.
	// It is kept as free-form text because carriers do not agree on a format.
	ArrivalDate string `json:"arrival_date"`
	// VesselName is the name of the vessel, when the carrier page exposes it.
	VesselName string `json:"vessel_name,omitempty"`
	// OriginPort is the port of loading, when available.
	OriginPort string `json:"origin_port,omitempty"`
	// DestinationPort is the port of discharge, when available.
	DestinationPort string `json:"destination_port,omitempty"`
	// Status is the carrier's current shipment status text, when available.
	Status string `json:"status,omitempty"`
	// FetchedAt is when this record was extracted, RFC3339.
	FetchedAt time.Time `json:"fetched_at"`
}

// Extraction is the structured output of the extraction agent before it is
// accepted as a record. Fields mirror TrackingRecord minus the bookkeeping ones.
type Extraction struct {
	VoyageNumber    string `json:"voyage_number"`
	ArrivalDate     string `json:"arrival_date"`
	VesselName      string `json:"vessel_name,omitempty"`
	OriginPort      string `json:"origin_port,omitempty"`
	DestinationPort string `json:"destination_port,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Complete returns true if the extraction carries the two mandatory fields.
func (e *Extraction) Complete() bool {
	return strings.TrimSpace(e.VoyageNumber) != "" && strings.TrimSpace(e.ArrivalDate) != ""
}

// HasRoute returns true if both ports are known, enabling route map rendering.
func (r *TrackingRecord) HasRoute() bool {
	return strings.TrimSpace(r.OriginPort) != "" && strings.TrimSpace(r.DestinationPort) != ""
}

// NewRecord builds a TrackingRecord from an accepted extraction.
func NewRecord(referenceID string, e *Extraction, fetchedAt time.Time) *TrackingRecord {
	return &TrackingRecord{
		ReferenceID:     referenceID,
		VoyageNumber:    strings.TrimSpace(e.VoyageNumber),
		ArrivalDate:     strings.TrimSpace(e.ArrivalDate),
		VesselName:      strings.TrimSpace(e.VesselName),
		OriginPort:      strings.TrimSpace(e.OriginPort),
		DestinationPort: strings.TrimSpace(e.DestinationPort),
		Status:          strings.TrimSpace(e.Status),
		FetchedAt:       fetchedAt,
	}
}
