package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	routedomain "cargo-tracker/internal/features/routemap/domain"
	adapter "cargo-tracker/internal/features/tracking/adapters"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory HistoryStore.
type mockStore struct {
	records   map[string]*domain.TrackingRecord
	saveErr   error
	lookupErr error
	saves     int
}

func newMockStore() *mockStore {
	return &mockStore{records: map[string]*domain.TrackingRecord{}}
}

func (m *mockStore) Lookup(ctx context.Context, referenceID string) (*domain.TrackingRecord, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	rec, ok := m.records[referenceID]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return rec, nil
}

func (m *mockStore) Save(ctx context.Context, record *domain.TrackingRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records[record.ReferenceID] = record
	return nil
}

// mockSessionFactory counts browser sessions and hands out a no-op driver.
type mockSessionFactory struct {
	opened  int
	closed  int
	openErr error
}

type nopPage struct{}

func (nopPage) Navigate(string) error              { return nil }
func (nopPage) ClickMatching(string, string) error { return nil }
func (nopPage) Fill(string, string) error          { return nil }
func (nopPage) Submit(string) error                { return nil }
func (nopPage) Text() (string, error)              { return "", nil }
func (nopPage) URL() string                        { return "" }

func (m *mockSessionFactory) Open(ctx context.Context, headless bool) (ports.PageDriver, func(), error) {
	if m.openErr != nil {
		return nil, func() {}, m.openErr
	}
	m.opened++
	return nopPage{}, func() { m.closed++ }, nil
}

// mockAgent returns a scripted extraction.
type mockAgent struct {
	extraction *domain.Extraction
	err        error
	calls      int
}

func (m *mockAgent) Extract(ctx context.Context, page ports.PageDriver, referenceID string) (*domain.Extraction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.extraction, nil
}

// mockMapper records render requests.
type mockMapper struct {
	outcome routedomain.Outcome
	calls   int
}

func (m *mockMapper) Render(ctx context.Context, origin, destination string) routedomain.Outcome {
	m.calls++
	return m.outcome
}

func newService(store ports.HistoryStore, sessions ports.SessionFactory, agent ports.ExtractionAgent, mapper ports.RouteMapper) *TrackingService {
	svc := NewTrackingService(store, sessions, agent, mapper)
	svc.now = func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }
	return svc
}

// TestTrack_CacheHit verifies a stored record short-circuits the pipeline:
// no browser, no extraction.
func TestTrack_CacheHit(t *testing.T) {
	store := newMockStore()
	store.records["SINI25432400"] = &domain.TrackingRecord{
		ReferenceID:  "SINI25432400",
		VoyageNumber: "YM MANDATE 0096W",
		ArrivalDate:  "2025-03-28 10:38",
	}
	sessions := &mockSessionFactory{}
	agent := &mockAgent{}

	svc := newService(store, sessions, agent, nil)

	result, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{})
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	assert.Equal(t, "YM MANDATE 0096W", result.Record.VoyageNumber)
	assert.Zero(t, sessions.opened)
	assert.Zero(t, agent.calls)
}

// TestTrack_MissThenExtract verifies the miss path saves exactly one record.
func TestTrack_MissThenExtract(t *testing.T) {
	store := newMockStore()
	sessions := &mockSessionFactory{}
	agent := &mockAgent{extraction: &domain.Extraction{
		VoyageNumber: "YM MANDATE 0096W",
		ArrivalDate:  "2025-03-28 10:38",
	}}

	svc := newService(store, sessions, agent, nil)

	result, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{Headless: true})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 1, store.saves)
	assert.NotEmpty(t, result.Record.VoyageNumber)
	assert.NotEmpty(t, result.Record.ArrivalDate)
	assert.Equal(t, 1, sessions.opened)
	assert.Equal(t, 1, sessions.closed, "session must be closed")
}

// TestTrack_RepeatRunHitsCache verifies idempotency: the second run serves
// the first run's record without extracting again.
func TestTrack_RepeatRunHitsCache(t *testing.T) {
	store := newMockStore()
	sessions := &mockSessionFactory{}
	agent := &mockAgent{extraction: &domain.Extraction{
		VoyageNumber: "YM MANDATE 0096W",
		ArrivalDate:  "2025-03-28 10:38",
	}}

	svc := newService(store, sessions, agent, nil)
	ctx := context.Background()

	first, err := svc.Track(ctx, "SINI25432400", TrackOptions{})
	require.NoError(t, err)
	require.False(t, first.FromCache)

	second, err := svc.Track(ctx, "SINI25432400", TrackOptions{})
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, 1, agent.calls)
}

// TestTrack_Force verifies --force bypasses the stored record.
func TestTrack_Force(t *testing.T) {
	store := newMockStore()
	store.records["SINI25432400"] = &domain.TrackingRecord{ReferenceID: "SINI25432400", VoyageNumber: "OLD"}
	sessions := &mockSessionFactory{}
	agent := &mockAgent{extraction: &domain.Extraction{
		VoyageNumber: "NEW 0097E",
		ArrivalDate:  "2025-04-01",
	}}

	svc := newService(store, sessions, agent, nil)

	result, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{Force: true})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, "NEW 0097E", result.Record.VoyageNumber)
	assert.Equal(t, "NEW 0097E", store.records["SINI25432400"].VoyageNumber)
}

// TestTrack_ExtractionFailure verifies nothing is persisted on failure and
// the session still closes.
func TestTrack_ExtractionFailure(t *testing.T) {
	store := newMockStore()
	sessions := &mockSessionFactory{}
	agent := &mockAgent{err: errors.New("extraction failed: timeout")}

	svc := newService(store, sessions, agent, nil)

	_, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{})
	require.Error(t, err)

	assert.Zero(t, store.saves)
	assert.Equal(t, 1, sessions.closed, "session must close on the failure path")
}

// TestTrack_EmptyExtraction verifies an extraction without the mandatory
// fields is rejected and not persisted.
func TestTrack_EmptyExtraction(t *testing.T) {
	store := newMockStore()
	agent := &mockAgent{extraction: &domain.Extraction{Status: "unknown"}}

	svc := newService(store, &mockSessionFactory{}, agent, nil)

	_, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{})
	assert.ErrorIs(t, err, ErrEmptyExtraction)
	assert.Zero(t, store.saves)
}

// TestTrack_BrowserOpenFailure verifies a launch failure surfaces without a save.
func TestTrack_BrowserOpenFailure(t *testing.T) {
	store := newMockStore()
	sessions := &mockSessionFactory{openErr: errors.New("chrome not found")}

	svc := newService(store, sessions, &mockAgent{}, nil)

	_, err := svc.Track(context.Background(), "SINI25432400", TrackOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open browser session")
	assert.Zero(t, store.saves)
}

// TestTrack_MapRendering verifies the map branch for known and unknown routes.
func TestTrack_MapRendering(t *testing.T) {
	t.Run("Rendered", func(t *testing.T) {
		mapper := &mockMapper{outcome: routedomain.Rendered("tracking_results/route_x.html")}
		agent := &mockAgent{extraction: &domain.Extraction{
			VoyageNumber:    "0096W",
			ArrivalDate:     "2025-03-28",
			OriginPort:      "Busan",
			DestinationPort: "Rotterdam",
		}}

		svc := newService(newMockStore(), &mockSessionFactory{}, agent, mapper)

		result, err := svc.Track(context.Background(), "REF", TrackOptions{RenderMap: true})
		require.NoError(t, err)
		assert.Equal(t, routedomain.OutcomeRendered, result.Map.State)
		assert.Equal(t, 1, mapper.calls)
	})

	t.Run("SkippedWithoutRoute", func(t *testing.T) {
		mapper := &mockMapper{}
		agent := &mockAgent{extraction: &domain.Extraction{
			VoyageNumber: "0096W",
			ArrivalDate:  "2025-03-28",
		}}

		svc := newService(newMockStore(), &mockSessionFactory{}, agent, mapper)

		result, err := svc.Track(context.Background(), "REF", TrackOptions{RenderMap: true})
		require.NoError(t, err)
		assert.Equal(t, routedomain.OutcomeSkipped, result.Map.State)
		assert.Zero(t, mapper.calls)
	})

	t.Run("NotRequested", func(t *testing.T) {
		mapper := &mockMapper{}
		agent := &mockAgent{extraction: &domain.Extraction{
			VoyageNumber:    "0096W",
			ArrivalDate:     "2025-03-28",
			OriginPort:      "Busan",
			DestinationPort: "Rotterdam",
		}}

		svc := newService(newMockStore(), &mockSessionFactory{}, agent, mapper)

		result, err := svc.Track(context.Background(), "REF", TrackOptions{})
		require.NoError(t, err)
		assert.Empty(t, result.Map.State)
		assert.Zero(t, mapper.calls)
	})
}

// TestTrack_EndToEndFileHistory runs the documented example against the real
// file store: SINI25432400 with a mocked extraction must land in the history
// document, and a failed re-run must leave the file byte-identical.
func TestTrack_EndToEndFileHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := adapter.NewFileHistoryStore(path)
	agent := &mockAgent{extraction: &domain.Extraction{
		VoyageNumber: "YM MANDATE 0096W",
		ArrivalDate:  "2025-03-28 10:38",
	}}

	svc := newService(store, &mockSessionFactory{}, agent, nil)
	ctx := context.Background()

	_, err := svc.Track(ctx, "SINI25432400", TrackOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "SINI25432400", records[0]["reference_id"])
	assert.Equal(t, "YM MANDATE 0096W", records[0]["voyage_number"])
	assert.Equal(t, "2025-03-28 10:38", records[0]["arrival_date"])

	// A failing forced re-run must not touch the document.
	agent.err = errors.New("extraction failed")
	_, err = svc.Track(ctx, "SINI25432400", TrackOptions{Force: true})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}
