package repository

import (
	"context"
	"time"

	"foodlens/internal/domain/model"
)

// MealPlanRepository is the port for meal-plan entries.
// Upsert replaces any existing entry in the same (user, date, slot) cell.
type MealPlanRepository interface {
	Upsert(ctx context.Context, tx Tx, entry *model.MealPlanEntry) error
	ListRange(ctx context.Context, tx Tx, userID string, from, to time.Time) ([]*model.MealPlanEntry, error)
	Delete(ctx context.Context, tx Tx, userID, id string) error
}
