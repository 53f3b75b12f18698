package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cargo-tracker/internal/core/config"
	"cargo-tracker/internal/core/logger"
	"cargo-tracker/internal/features/tracking/domain"
	"cargo-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Selectors tried in order when looking for the tracking search box. Carrier
// pages are not stable enough to pin a single one.
var searchSelectors = []string{
	"input[name='number']",
	"input[type='search']",
	"input[type='text']",
}

// extractionSchema constrains the model to the structured fields we store.
var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"voyage_number":    {Type: genai.TypeString, Description: "vessel voyage number"},
		"arrival_date":     {Type: genai.TypeString, Description: "estimated time of arrival as shown"},
		"vessel_name":      {Type: genai.TypeString, Description: "vessel name"},
		"origin_port":      {Type: genai.TypeString, Description: "port of loading"},
		"destination_port": {Type: genai.TypeString, Description: "port of discharge"},
		"status":           {Type: genai.TypeString, Description: "current shipment status"},
	},
	Required: []string{"voyage_number", "arrival_date"},
}

// GeminiAgent implements ports.ExtractionAgent: it drives the page to the
// carrier's tracking result and has Gemini turn the rendered text into
// structured fields.
type GeminiAgent struct {
	trackingURL string
	model       string
	logger      *zap.Logger

	// generate performs one model call. Swappable in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// NewGeminiAgent creates an extraction agent backed by the Gemini API.
func NewGeminiAgent(ctx context.Context, cfg config.GeminiConfig, trackingURL string) (*GeminiAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing required configuration: GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	a := &GeminiAgent{
		trackingURL: trackingURL,
		model:       cfg.Model,
		logger:      logger.Named("extraction"),
	}
	a.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
			ResponseSchema:   extractionSchema,
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return a, nil
}

// Extract navigates to the carrier site, submits the reference id and asks
// the model for the tracking fields. Every failure mode surfaces as a single
// extraction error.
func (a *GeminiAgent) Extract(ctx context.Context, page ports.PageDriver, referenceID string) (*domain.Extraction, error) {
	if err := page.Navigate(a.trackingURL); err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	// The portal lists shipping lines; HMM hosts the actual tracking form.
	if err := page.ClickMatching("a", `(?i)hyundai|hmm`); err != nil {
		a.logger.Warn("No carrier link found, assuming tracking form is on the landing page",
			zap.String("url", page.URL()),
			zap.Error(err),
		)
	}

	if err := a.submitReference(page, referenceID); err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	text, err := page.Text()
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	prompt := buildExtractionPrompt(referenceID, text)
	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: model call: %w", err)
	}

	extraction, err := parseExtraction(raw)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	a.logger.Info("Extraction complete",
		zap.String("reference_id", referenceID),
		zap.String("voyage_number", extraction.VoyageNumber),
		zap.String("arrival_date", extraction.ArrivalDate),
	)
	return extraction, nil
}

// submitReference tries the known search box selectors until one accepts the
// reference id.
func (a *GeminiAgent) submitReference(page ports.PageDriver, referenceID string) error {
	var lastErr error
	for _, sel := range searchSelectors {
		if err := page.Fill(sel, referenceID); err != nil {
			lastErr = err
			continue
		}
		if err := page.Submit(sel); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("could not enter reference id into tracking form: %w", lastErr)
}

// buildExtractionPrompt is the natural-language instruction sent to the model
// together with the rendered page text.
func buildExtractionPrompt(referenceID, pageText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are reading the tracking result page of a shipping line for reference ID %q.\n", referenceID)
	b.WriteString("Extract the following details:\n")
	b.WriteString("- voyage_number: the vessel voyage number\n")
	b.WriteString("- arrival_date: the estimated time of arrival, exactly as shown\n")
	b.WriteString("- vessel_name: the vessel name\n")
	b.WriteString("- origin_port: the port of loading\n")
	b.WriteString("- destination_port: the port of discharge\n")
	b.WriteString("- status: the current shipment status\n")
	b.WriteString("Return JSON only. Use an empty string for anything the page does not show.\n\n")
	b.WriteString("Page text:\n")
	b.WriteString(pageText)
	return b.String()
}

var jsonObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// parseExtraction decodes the model output. It accepts clean JSON, JSON
// embedded in prose, and as a last resort labeled fields in plain text.
func parseExtraction(raw string) (*domain.Extraction, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("model returned empty output")
	}

	var e domain.Extraction
	if err := json.Unmarshal([]byte(raw), &e); err == nil {
		return &e, nil
	}

	if m := jsonObjectRe.FindString(raw); m != "" {
		if err := json.Unmarshal([]byte(m), &e); err == nil {
			return &e, nil
		}
	}

	return extractFromText(raw), nil
}

var (
	voyageRe      = regexp.MustCompile(`(?i)voyage(?: number)?[\s:]+([A-Z0-9 ]+)`)
	vesselRe      = regexp.MustCompile(`(?i)vessel(?: name)?[\s:]+([^\n]+)`)
	etaRe         = regexp.MustCompile(`(?i)(?:eta|arrival(?: date)?)[\s:]+([^\n]+)`)
	loadingRe     = regexp.MustCompile(`(?i)port of loading[\s:]+([^\n]+)`)
	dischargeRe   = regexp.MustCompile(`(?i)port of discharge[\s:]+([^\n]+)`)
	statusFieldRe = regexp.MustCompile(`(?i)status[\s:]+([^\n]+)`)
)

// extractFromText pulls labeled fields out of free text when the model does
// not cooperate with the JSON schema.
func extractFromText(text string) *domain.Extraction {
	e := &domain.Extraction{}
	if m := voyageRe.FindStringSubmatch(text); m != nil {
		e.VoyageNumber = strings.TrimSpace(m[1])
	}
	if m := vesselRe.FindStringSubmatch(text); m != nil {
		e.VesselName = strings.TrimSpace(m[1])
	}
	if m := etaRe.FindStringSubmatch(text); m != nil {
		e.ArrivalDate = strings.TrimSpace(m[1])
	}
	if m := loadingRe.FindStringSubmatch(text); m != nil {
		e.OriginPort = strings.TrimSpace(m[1])
	}
	if m := dischargeRe.FindStringSubmatch(text); m != nil {
		e.DestinationPort = strings.TrimSpace(m[1])
	}
	if m := statusFieldRe.FindStringSubmatch(text); m != nil {
		e.Status = strings.TrimSpace(m[1])
	}
	return e
}
