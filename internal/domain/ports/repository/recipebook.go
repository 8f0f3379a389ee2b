package repository

import (
	"context"

	"foodlens/internal/domain/model"
)

// RecipeBookRepository is the port for saved recipes.
type RecipeBookRepository interface {
	Save(ctx context.Context, tx Tx, entry *model.SavedRecipe) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SavedRecipe, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.SavedRecipe, error)
	Delete(ctx context.Context, tx Tx, userID, id string) error
}
