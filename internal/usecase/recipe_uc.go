// File: internal/usecase/recipe_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/domain/ports/repository"
	"foodlens/internal/infra/metrics"
	"foodlens/internal/retry"
)

const maxSuggestions = 5

// RecipeUseCase generates suggestions from detected ingredients and manages
// the (premium) recipe book.
type RecipeUseCase interface {
	Suggest(ctx context.Context, userID string, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error)
	SaveToBook(ctx context.Context, userID string, r model.Recipe) (*model.SavedRecipe, error)
	Book(ctx context.Context, userID string) ([]*model.SavedRecipe, error)
	RemoveFromBook(ctx context.Context, userID, id string) error
}

var _ RecipeUseCase = (*recipeUC)(nil)

type recipeUC struct {
	gen        adapter.RecipeAdapter
	book       repository.RecipeBookRepository
	subs       SubscriptionUseCase
	procPolicy retry.Policy
	log        *zerolog.Logger
}

func NewRecipeUseCase(
	gen adapter.RecipeAdapter,
	book repository.RecipeBookRepository,
	subs SubscriptionUseCase,
	procPolicy retry.Policy,
	log *zerolog.Logger,
) *recipeUC {
	return &recipeUC{gen: gen, book: book, subs: subs, procPolicy: procPolicy, log: log}
}

func (uc *recipeUC) Suggest(ctx context.Context, userID string, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error) {
	cleaned := make([]string, 0, len(ingredients))
	seen := map[string]struct{}{}
	for _, ing := range ingredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing == "" {
			continue
		}
		if _, dup := seen[ing]; dup {
			continue
		}
		seen[ing] = struct{}{}
		cleaned = append(cleaned, ing)
	}
	if len(cleaned) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if prefs.MaxResults <= 0 || prefs.MaxResults > maxSuggestions {
		prefs.MaxResults = maxSuggestions
	}

	start := time.Now()
	out := retry.Do(ctx, uc.procPolicy, func(ctx context.Context) ([]model.Recipe, error) {
		return uc.gen.SuggestRecipes(ctx, cleaned, prefs)
	})
	metrics.ObserveRetry("processing", out.Attempts, out.OK)
	if !out.OK {
		uc.log.Warn().Err(out.Err).Int("attempts", out.Attempts).Msg("recipe generation failed")
		return nil, out.Err
	}

	recipes := out.Value
	if len(recipes) > maxSuggestions {
		recipes = recipes[:maxSuggestions]
	}
	uc.log.Debug().
		Str("user_id", userID).
		Int("ingredients", len(cleaned)).
		Int("recipes", len(recipes)).
		Dur("elapsed", time.Since(start)).
		Msg("recipes suggested")
	return recipes, nil
}

func (uc *recipeUC) SaveToBook(ctx context.Context, userID string, r model.Recipe) (*model.SavedRecipe, error) {
	if err := uc.requireBook(ctx, userID); err != nil {
		return nil, err
	}
	entry, err := model.NewSavedRecipe(userID, r)
	if err != nil {
		return nil, err
	}
	if err := uc.book.Save(ctx, repository.NoTX, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *recipeUC) Book(ctx context.Context, userID string) ([]*model.SavedRecipe, error) {
	if err := uc.requireBook(ctx, userID); err != nil {
		return nil, err
	}
	return uc.book.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *recipeUC) RemoveFromBook(ctx context.Context, userID, id string) error {
	if err := uc.requireBook(ctx, userID); err != nil {
		return err
	}
	return uc.book.Delete(ctx, repository.NoTX, userID, id)
}

func (uc *recipeUC) requireBook(ctx context.Context, userID string) error {
	ok, err := uc.subs.HasCapability(ctx, userID, model.CapRecipeBook)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrFeatureDenied
	}
	return nil
}
