// File: internal/infra/adapters/ai/openai_vision.go
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VisionAdapter = (*OpenAIVisionAdapter)(nil)

const visionPrompt = `Identify every food ingredient visible in this photo.
Respond with a JSON array only, no prose. Each element:
{"name": "<lowercase singular ingredient>", "confidence": <0.0-1.0>}
If the photo contains no food, respond with [].`

// OpenAIVisionAdapter detects ingredients via the Chat Completions API with
// an image part. Base URL is configurable so OpenAI-compatible gateways work.
type OpenAIVisionAdapter struct {
	apiKey        string
	base          string // e.g., https://api.openai.com/v1
	model         string
	minConfidence float64
	client        *http.Client
}

func NewOpenAIVisionAdapter(apiKey, model, base string, minConfidence float64) (*OpenAIVisionAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o"
	}
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIVisionAdapter{
		apiKey:        apiKey,
		base:          strings.TrimRight(base, "/"),
		model:         model,
		minConfidence: minConfidence,
		client:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (o *OpenAIVisionAdapter) Provider() string { return "openai" }

func (o *OpenAIVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	start := time.Now()

	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))
	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": visionPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
	}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		metrics.ObserveVision("openai", time.Since(start), false)
		return nil, domain.NewFault(domain.FaultNetwork, "vision service unreachable", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.ObserveVision("openai", time.Since(start), false)
		return nil, mapHTTPStatus("openai", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ObserveVision("openai", time.Since(start), false)
		return nil, domain.NewFault(domain.FaultProcessing, "vision response unreadable", true, err)
	}
	if len(payload.Choices) == 0 {
		metrics.ObserveVision("openai", time.Since(start), false)
		return nil, domain.NewFault(domain.FaultProcessing, "vision response empty", true, nil)
	}

	items, err := parseIngredientJSON(payload.Choices[0].Message.Content, o.minConfidence)
	if err != nil {
		metrics.ObserveVision("openai", time.Since(start), false)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.ObserveVision("openai", elapsed, true)
	return &adapter.VisionResult{Ingredients: items, Provider: o.Provider(), Elapsed: elapsed}, nil
}

// mapHTTPStatus turns provider HTTP status codes into classified faults.
// 429 and 5xx are transient; everything else is terminal.
func mapHTTPStatus(provider string, status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewFault(domain.FaultNetwork, "vision provider is rate limiting", true,
			fmt.Errorf("%s http %d: %w", provider, status, domain.ErrRateLimited))
	case status >= 500:
		return domain.NewFault(domain.FaultNetwork, "vision provider unavailable", true,
			fmt.Errorf("%s http %d: %w", provider, status, domain.ErrProviderDown))
	default:
		return domain.NewFault(domain.FaultProcessing, "vision request rejected", false,
			fmt.Errorf("%s http %d", provider, status))
	}
}

// parseIngredientJSON decodes the model's JSON array, tolerating markdown
// code fences, and drops entries under the confidence floor.
func parseIngredientJSON(content string, minConfidence float64) ([]model.DetectedIngredient, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var raw []model.DetectedIngredient
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, domain.NewFault(domain.FaultProcessing, "vision response unreadable", true, err)
	}
	out := make([]model.DetectedIngredient, 0, len(raw))
	for _, it := range raw {
		if it.Name == "" || it.Confidence < minConfidence {
			continue
		}
		it.Name = strings.ToLower(strings.TrimSpace(it.Name))
		out = append(out, it)
	}
	return out, nil
}
