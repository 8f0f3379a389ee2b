// File: internal/infra/adapters/ai/noop_ai.go
package ai

import (
	"context"
	"log"
	"time"

	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
)

var (
	_ adapter.VisionAdapter = (*NoopVisionAdapter)(nil)
	_ adapter.RecipeAdapter = (*NoopRecipeAdapter)(nil)
)

// NoopVisionAdapter returns canned detections for local/dev runs without
// provider credentials.
type NoopVisionAdapter struct{}

func NewNoopVisionAdapter() *NoopVisionAdapter { return &NoopVisionAdapter{} }

func (a *NoopVisionAdapter) Provider() string { return "noop" }

func (a *NoopVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	log.Printf("[noop-vision] detect: %d bytes (%s)\n", len(image), mime)
	return &adapter.VisionResult{
		Ingredients: []model.DetectedIngredient{
			{Name: "tomato", Confidence: 0.97},
			{Name: "onion", Confidence: 0.91},
			{Name: "garlic", Confidence: 0.84},
		},
		Provider: "noop",
		Elapsed:  100 * time.Millisecond,
	}, nil
}

// NoopRecipeAdapter echoes the input back as one trivial recipe.
type NoopRecipeAdapter struct{}

func NewNoopRecipeAdapter() *NoopRecipeAdapter { return &NoopRecipeAdapter{} }

func (a *NoopRecipeAdapter) SuggestRecipes(ctx context.Context, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	log.Printf("[noop-recipe] suggest from: %v\n", ingredients)
	return []model.Recipe{
		{
			Title:        "Everything Stir-Fry",
			Ingredients:  ingredients,
			Instructions: []string{"Chop everything.", "Fry until done."},
			MatchPercent: 100,
		},
	}, nil
}
