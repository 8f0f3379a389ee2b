// File: internal/infra/adapters/ai/openai_recipe.go
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/infra/metrics"
)

var _ adapter.RecipeAdapter = (*OpenAIRecipeAdapter)(nil)

const recipeSystemPrompt = `You are a recipe assistant. Given a list of ingredients the user
has on hand, suggest recipes ranked by how many of their ingredients each one uses.
Respond with a JSON array only, no prose. Each element:
{"title": string, "ingredients": [string], "instructions": [string],
 "nutrition": {"calories": number, "protein_g": number, "carbs_g": number,
               "fat_g": number, "fiber_g": number, "sodium_mg": number},
 "allergens": [string], "match_percent": integer 0-100,
 "missing_ingredients": [string]}`

// OpenAIRecipeAdapter generates recipe suggestions via the official SDK.
type OpenAIRecipeAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIRecipeAdapter(apiKey, model string) (*OpenAIRecipeAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIRecipeAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIRecipeAdapter) SuggestRecipes(ctx context.Context, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error) {
	start := time.Now()
	prompt := buildRecipePrompt(ingredients, prefs)
	metrics.AddPromptTokens(o.model, estimateTokens(o.model, recipeSystemPrompt+prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(recipeSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		metrics.ObserveRecipe(o.model, time.Since(start), false)
		return nil, domain.NewFault(domain.FaultNetwork, "recipe service unreachable", true, err)
	}
	if len(resp.Choices) == 0 {
		metrics.ObserveRecipe(o.model, time.Since(start), false)
		return nil, domain.NewFault(domain.FaultProcessing, "recipe response empty", true, nil)
	}

	recipes, err := parseRecipeJSON(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.ObserveRecipe(o.model, time.Since(start), false)
		return nil, err
	}
	if prefs.MaxResults > 0 && len(recipes) > prefs.MaxResults {
		recipes = recipes[:prefs.MaxResults]
	}
	metrics.ObserveRecipe(o.model, time.Since(start), true)
	return recipes, nil
}

func buildRecipePrompt(ingredients []string, prefs adapter.RecipePrefs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ingredients on hand: %s.\n", strings.Join(ingredients, ", "))
	if len(prefs.Dietary) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(prefs.Dietary, ", "))
	}
	n := prefs.MaxResults
	if n <= 0 {
		n = 5
	}
	fmt.Fprintf(&b, "Suggest up to %d recipes.", n)
	return b.String()
}

func parseRecipeJSON(content string) ([]model.Recipe, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	var recipes []model.Recipe
	if err := json.Unmarshal([]byte(content), &recipes); err != nil {
		return nil, domain.NewFault(domain.FaultProcessing, "recipe response unreadable", true, err)
	}
	out := recipes[:0]
	for _, r := range recipes {
		if r.Title == "" {
			continue
		}
		if r.MatchPercent < 0 {
			r.MatchPercent = 0
		}
		if r.MatchPercent > 100 {
			r.MatchPercent = 100
		}
		out = append(out, r)
	}
	return out, nil
}

// estimateTokens counts prompt tokens locally; falls back to a rough
// bytes/4 estimate for models tiktoken does not know.
func estimateTokens(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if enc, err = tiktoken.GetEncoding("cl100k_base"); err != nil {
			return len(text) / 4
		}
	}
	return len(enc.Encode(text, nil, nil))
}
