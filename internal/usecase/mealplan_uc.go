// File: internal/usecase/mealplan_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

// MealPlanUseCase manages the weekly meal planner (premium capability).
type MealPlanUseCase interface {
	Schedule(ctx context.Context, userID string, date time.Time, slot model.MealSlot, savedRecipeID, title string) (*model.MealPlanEntry, error)
	Week(ctx context.Context, userID string, from time.Time) ([]*model.MealPlanEntry, error)
	Remove(ctx context.Context, userID, id string) error
}

var _ MealPlanUseCase = (*mealPlanUC)(nil)

type mealPlanUC struct {
	plans repository.MealPlanRepository
	book  repository.RecipeBookRepository
	subs  SubscriptionUseCase
	log   *zerolog.Logger
}

func NewMealPlanUseCase(
	plans repository.MealPlanRepository,
	book repository.RecipeBookRepository,
	subs SubscriptionUseCase,
	log *zerolog.Logger,
) *mealPlanUC {
	return &mealPlanUC{plans: plans, book: book, subs: subs, log: log}
}

func (uc *mealPlanUC) Schedule(ctx context.Context, userID string, date time.Time, slot model.MealSlot, savedRecipeID, title string) (*model.MealPlanEntry, error) {
	if err := uc.requirePlanning(ctx, userID); err != nil {
		return nil, err
	}
	// Scheduling a saved recipe inherits its title unless overridden.
	if savedRecipeID != "" && title == "" {
		saved, err := uc.book.FindByID(ctx, repository.NoTX, savedRecipeID)
		if err != nil {
			return nil, err
		}
		if saved.UserID != userID {
			return nil, domain.ErrNotFound
		}
		title = saved.Recipe.Title
	}
	entry, err := model.NewMealPlanEntry(userID, date, slot, savedRecipeID, title)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Upsert(ctx, repository.NoTX, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *mealPlanUC) Week(ctx context.Context, userID string, from time.Time) ([]*model.MealPlanEntry, error) {
	if err := uc.requirePlanning(ctx, userID); err != nil {
		return nil, err
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	return uc.plans.ListRange(ctx, repository.NoTX, userID, day, day.AddDate(0, 0, 7))
}

func (uc *mealPlanUC) Remove(ctx context.Context, userID, id string) error {
	if err := uc.requirePlanning(ctx, userID); err != nil {
		return err
	}
	return uc.plans.Delete(ctx, repository.NoTX, userID, id)
}

func (uc *mealPlanUC) requirePlanning(ctx context.Context, userID string) error {
	ok, err := uc.subs.HasCapability(ctx, userID, model.CapMealPlanning)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrFeatureDenied
	}
	return nil
}
