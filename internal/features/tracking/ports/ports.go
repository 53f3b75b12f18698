package ports

import (
	"context"
	"errors"

	routedomain "cargo-tracker/internal/features/routemap/domain"
	"cargo-tracker/internal/features/tracking/domain"
)

// ErrRecordNotFound is returned by HistoryStore.Lookup when no record exists
// for the given reference id.
var ErrRecordNotFound = errors.New("tracking record not found")

// HistoryStore defines the persistence interface for tracking records.
// Implementations must make Save overwrite-or-insert by reference id and must
// leave the previously persisted state untouched when Save fails.
type HistoryStore interface {
	// Lookup retrieves the record stored for the given reference id.
	// Returns ErrRecordNotFound when the id has never been tracked.
	Lookup(ctx context.Context, referenceID string) (*domain.TrackingRecord, error)
	// Save persists the record, replacing any existing entry with the same
	// reference id.
	Save(ctx context.Context, record *domain.TrackingRecord) error
}

// PageDriver is the browser capability surface the extraction agent drives.
// It is implemented by a live browser session; tests substitute fakes.
type PageDriver interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(url string) error
	// ClickMatching clicks the first element matched by the CSS selector whose
	// text matches the regular expression.
	ClickMatching(selector, pattern string) error
	// Fill types the value into the element matched by the CSS selector.
	Fill(selector, value string) error
	// Submit presses Enter on the element matched by the CSS selector.
	Submit(selector string) error
	// Text returns the visible text of the current page body.
	Text() (string, error)
	// URL returns the current page URL.
	URL() string
}

// ExtractionAgent turns a live page plus a reference id into structured
// tracking fields. The call is a single blocking boundary: whatever planning
// or retrying happens inside belongs to the implementation.
type ExtractionAgent interface {
	Extract(ctx context.Context, page PageDriver, referenceID string) (*domain.Extraction, error)
}

// SessionFactory opens browser sessions. The returned close function must be
// safe to call on every exit path.
type SessionFactory interface {
	Open(ctx context.Context, headless bool) (PageDriver, func(), error)
}

// RouteMapper renders the optional route map between two ports. It never
// fails a run: misses come back as a skipped outcome.
type RouteMapper interface {
	Render(ctx context.Context, originPort, destinationPort string) routedomain.Outcome
}
