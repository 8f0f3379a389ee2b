// File: internal/infra/adapters/ai/gemini_vision.go
package ai

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"foodlens/internal/domain"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/infra/metrics"
)

var _ adapter.VisionAdapter = (*GeminiVisionAdapter)(nil)

type GeminiVisionAdapter struct {
	client        *genai.Client
	model         string
	minConfidence float64
}

// NewGeminiVisionAdapter creates a Gemini-backed vision adapter using the
// official SDK. baseURL may be empty for the public endpoint.
func NewGeminiVisionAdapter(ctx context.Context, apiKey, model, baseURL string, minConfidence float64) (*GeminiVisionAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiVisionAdapter{client: c, model: model, minConfidence: minConfidence}, nil
}

func (g *GeminiVisionAdapter) Provider() string { return "gemini" }

func (g *GeminiVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	start := time.Now()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: visionPrompt},
				{InlineData: &genai.Blob{MIMEType: mime, Data: image}},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		metrics.ObserveVision("gemini", time.Since(start), false)
		return nil, domain.NewFault(domain.FaultNetwork, "vision service unreachable", true, err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p.Text != "" {
				text = p.Text
				break
			}
		}
	}
	if text == "" {
		metrics.ObserveVision("gemini", time.Since(start), false)
		return nil, domain.NewFault(domain.FaultProcessing, "vision response empty", true, nil)
	}

	items, err := parseIngredientJSON(text, g.minConfidence)
	if err != nil {
		metrics.ObserveVision("gemini", time.Since(start), false)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.ObserveVision("gemini", elapsed, true)
	return &adapter.VisionResult{Ingredients: items, Provider: g.Provider(), Elapsed: elapsed}, nil
}
