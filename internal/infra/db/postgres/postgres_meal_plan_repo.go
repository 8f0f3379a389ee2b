package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

var _ repository.MealPlanRepository = (*mealPlanRepo)(nil)

type mealPlanRepo struct {
	pool *pgxpool.Pool
}

func NewMealPlanRepo(pool *pgxpool.Pool) *mealPlanRepo {
	return &mealPlanRepo{pool: pool}
}

func (r *mealPlanRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.MealPlanEntry) error {
	const q = `
INSERT INTO meal_plan_entries (id, user_id, plan_date, slot, saved_recipe_id, title, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, plan_date, slot) DO UPDATE SET
  id=$1, saved_recipe_id=$5, title=$6, created_at=$7;`
	var recipeID interface{}
	if e.SavedRecipeID != "" {
		recipeID = e.SavedRecipeID
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, e.Date, string(e.Slot), recipeID, e.Title, e.CreatedAt)
	return err
}

func (r *mealPlanRepo) ListRange(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]*model.MealPlanEntry, error) {
	const q = `
SELECT id, user_id, plan_date, slot, saved_recipe_id, title, created_at
  FROM meal_plan_entries
 WHERE user_id=$1 AND plan_date >= $2 AND plan_date < $3
 ORDER BY plan_date ASC, slot ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.MealPlanEntry
	for rows.Next() {
		e, err := scanMealPlanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *mealPlanRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM meal_plan_entries WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMealPlanEntry(row pgx.Row) (*model.MealPlanEntry, error) {
	var (
		e        model.MealPlanEntry
		slot     string
		recipeID *string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Date, &slot, &recipeID, &e.Title, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Slot = model.MealSlot(slot)
	if recipeID != nil {
		e.SavedRecipeID = *recipeID
	}
	return &e, nil
}
