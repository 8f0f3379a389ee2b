package model

import (
	"time"

	"foodlens/internal/domain"

	"github.com/google/uuid"
)

// NutritionInfo is a per-serving breakdown as reported by the generator.
type NutritionInfo struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SodiumMg float64 `json:"sodium_mg"`
}

// Recipe is one generated suggestion, ranked by MatchPercent against the
// ingredients the user actually has.
type Recipe struct {
	Title              string        `json:"title"`
	Ingredients        []string      `json:"ingredients"`
	Instructions       []string      `json:"instructions"`
	Nutrition          NutritionInfo `json:"nutrition"`
	Allergens          []string      `json:"allergens,omitempty"`
	MatchPercent       int           `json:"match_percent"`
	MissingIngredients []string      `json:"missing_ingredients,omitempty"`
}

// SavedRecipe is a recipe-book entry. The recipe body is stored as-is;
// entries are owned by one user.
type SavedRecipe struct {
	ID      string    `json:"id"` // UUID
	UserID  string    `json:"user_id"`
	Recipe  Recipe    `json:"recipe"`
	SavedAt time.Time `json:"saved_at"`
}

func NewSavedRecipe(userID string, r Recipe) (*SavedRecipe, error) {
	if userID == "" || r.Title == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SavedRecipe{
		ID:      uuid.NewString(),
		UserID:  userID,
		Recipe:  r,
		SavedAt: time.Now(),
	}, nil
}

type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealSnack     MealSlot = "snack"
)

// MealPlanEntry schedules a saved recipe (or a free-text meal) into a
// day/slot cell of the user's plan. One entry per (user, date, slot).
type MealPlanEntry struct {
	ID            string    `json:"id"` // UUID
	UserID        string    `json:"user_id"`
	Date          time.Time `json:"date"` // normalized to midnight UTC
	Slot          MealSlot  `json:"slot"`
	SavedRecipeID string    `json:"saved_recipe_id,omitempty"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMealPlanEntry(userID string, date time.Time, slot MealSlot, savedRecipeID, title string) (*MealPlanEntry, error) {
	if userID == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch slot {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
	default:
		return nil, domain.ErrInvalidArgument
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return &MealPlanEntry{
		ID:            uuid.NewString(),
		UserID:        userID,
		Date:          day,
		Slot:          slot,
		SavedRecipeID: savedRecipeID,
		Title:         title,
		CreatedAt:     time.Now(),
	}, nil
}
