package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePage is a scripted PageDriver for agent tests.
type fakePage struct {
	navErr    error
	clickErr  error
	fillErr   map[string]error
	submitErr map[string]error
	text      string
	textErr   error

	navigated []string
	filled    map[string]string
}

func (f *fakePage) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakePage) ClickMatching(selector, pattern string) error {
	return f.clickErr
}

func (f *fakePage) Fill(selector, value string) error {
	if err := f.fillErr[selector]; err != nil {
		return err
	}
	if f.filled == nil {
		f.filled = map[string]string{}
	}
	f.filled[selector] = value
	return nil
}

func (f *fakePage) Submit(selector string) error {
	return f.submitErr[selector]
}

func (f *fakePage) Text() (string, error) {
	return f.text, f.textErr
}

func (f *fakePage) URL() string { return "http://fake.test/" }

func testAgent(generate func(ctx context.Context, prompt string) (string, error)) *GeminiAgent {
	return &GeminiAgent{
		trackingURL: "http://www.seacargotracking.net/",
		model:       "gemini-2.0-flash",
		logger:      zap.NewNop(),
		generate:    generate,
	}
}

// TestGeminiAgent_Extract_Success verifies the happy path: navigate, submit
// the reference, hand the page text to the model, parse its JSON.
func TestGeminiAgent_Extract_Success(t *testing.T) {
	page := &fakePage{text: "Voyage: 0096W ETA: 2025-03-28"}

	var seenPrompt string
	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return `{"voyage_number": "YM MANDATE 0096W", "arrival_date": "2025-03-28 10:38"}`, nil
	})

	extraction, err := agent.Extract(context.Background(), page, "SINI25432400")
	require.NoError(t, err)

	assert.Equal(t, "YM MANDATE 0096W", extraction.VoyageNumber)
	assert.Equal(t, "2025-03-28 10:38", extraction.ArrivalDate)
	assert.Equal(t, []string{"http://www.seacargotracking.net/"}, page.navigated)
	assert.Equal(t, "SINI25432400", page.filled["input[name='number']"])
	assert.Contains(t, seenPrompt, "SINI25432400")
	assert.Contains(t, seenPrompt, page.text)
}

// TestGeminiAgent_Extract_MissingCarrierLinkTolerated verifies that a page
// without the carrier link still goes through the tracking form.
func TestGeminiAgent_Extract_MissingCarrierLinkTolerated(t *testing.T) {
	page := &fakePage{
		clickErr: errors.New("no element"),
		text:     "result",
	}

	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		return `{"voyage_number": "V", "arrival_date": "D"}`, nil
	})

	_, err := agent.Extract(context.Background(), page, "REF1")
	require.NoError(t, err)
}

// TestGeminiAgent_Extract_SelectorFallback verifies the search box selectors
// are tried in order.
func TestGeminiAgent_Extract_SelectorFallback(t *testing.T) {
	page := &fakePage{
		fillErr: map[string]error{
			"input[name='number']": errors.New("not found"),
			"input[type='search']": errors.New("not found"),
		},
		text: "result",
	}

	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		return `{"voyage_number": "V", "arrival_date": "D"}`, nil
	})

	_, err := agent.Extract(context.Background(), page, "REF1")
	require.NoError(t, err)
	assert.Equal(t, "REF1", page.filled["input[type='text']"])
}

// TestGeminiAgent_Extract_NoSearchBox verifies failure when no selector works.
func TestGeminiAgent_Extract_NoSearchBox(t *testing.T) {
	notFound := errors.New("not found")
	page := &fakePage{
		fillErr: map[string]error{
			"input[name='number']": notFound,
			"input[type='search']": notFound,
			"input[type='text']":   notFound,
		},
	}

	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("model must not be called without a submitted form")
		return "", nil
	})

	_, err := agent.Extract(context.Background(), page, "REF1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not enter reference id")
}

// TestGeminiAgent_Extract_NavigationFailed verifies navigation errors surface
// as extraction failure.
func TestGeminiAgent_Extract_NavigationFailed(t *testing.T) {
	page := &fakePage{navErr: errors.New("dns lookup failed")}

	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		return "", nil
	})

	_, err := agent.Extract(context.Background(), page, "REF1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction failed")
}

// TestGeminiAgent_Extract_ModelError verifies model failures surface as
// extraction failure.
func TestGeminiAgent_Extract_ModelError(t *testing.T) {
	page := &fakePage{text: "result"}

	agent := testAgent(func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("rate limited")
	})

	_, err := agent.Extract(context.Background(), page, "REF1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model call")
}

// TestParseExtraction covers the three accepted model output shapes.
func TestParseExtraction(t *testing.T) {
	t.Run("CleanJSON", func(t *testing.T) {
		e, err := parseExtraction(`{"voyage_number": "0096W", "arrival_date": "2025-03-28", "origin_port": "Busan"}`)
		require.NoError(t, err)
		assert.Equal(t, "0096W", e.VoyageNumber)
		assert.Equal(t, "Busan", e.OriginPort)
	})

	t.Run("JSONEmbeddedInProse", func(t *testing.T) {
		e, err := parseExtraction("Here is the extracted data:\n{\"voyage_number\": \"0096W\", \"arrival_date\": \"2025-03-28\"}\nLet me know if you need more.")
		require.NoError(t, err)
		assert.Equal(t, "0096W", e.VoyageNumber)
		assert.Equal(t, "2025-03-28", e.ArrivalDate)
	})

	t.Run("LabeledTextFallback", func(t *testing.T) {
		e, err := parseExtraction("Vessel: YM MANDATE\nVoyage: 0096W\nPort of Loading: Busan\nPort of Discharge: Rotterdam\nETA: 2025-03-28 10:38\nStatus: In Transit")
		require.NoError(t, err)
		assert.Equal(t, "0096W", e.VoyageNumber)
		assert.Equal(t, "YM MANDATE", e.VesselName)
		assert.Equal(t, "Busan", e.OriginPort)
		assert.Equal(t, "Rotterdam", e.DestinationPort)
		assert.Equal(t, "2025-03-28 10:38", e.ArrivalDate)
		assert.Equal(t, "In Transit", e.Status)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := parseExtraction("   ")
		assert.Error(t, err)
	})
}
