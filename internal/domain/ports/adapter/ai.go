package adapter

import (
	"context"
	"time"

	"foodlens/internal/domain/model"
)

// VisionResult is what a vision provider returns for one photo.
type VisionResult struct {
	Ingredients []model.DetectedIngredient
	Provider    string
	Elapsed     time.Duration
}

// VisionAdapter is the port for food-photo ingredient detection.
// image is an opaque encoded payload (JPEG/PNG/WebP); mime is its media type.
type VisionAdapter interface {
	DetectIngredients(ctx context.Context, image []byte, mime string) (*VisionResult, error)
	Provider() string
}

// RecipePrefs carries optional constraints for recipe generation.
type RecipePrefs struct {
	Dietary    []string // e.g. "vegetarian", "gluten-free"
	MaxResults int      // capped at 5 by adapters
}

// RecipeAdapter is the port for ingredient-list → ranked recipe generation.
type RecipeAdapter interface {
	SuggestRecipes(ctx context.Context, ingredients []string, prefs RecipePrefs) ([]model.Recipe, error)
}
