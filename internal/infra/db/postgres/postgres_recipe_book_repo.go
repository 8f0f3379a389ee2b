package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

var _ repository.RecipeBookRepository = (*recipeBookRepo)(nil)

type recipeBookRepo struct {
	pool *pgxpool.Pool
}

func NewRecipeBookRepo(pool *pgxpool.Pool) *recipeBookRepo {
	return &recipeBookRepo{pool: pool}
}

func (r *recipeBookRepo) Save(ctx context.Context, tx repository.Tx, e *model.SavedRecipe) error {
	const q = `
INSERT INTO saved_recipes (id, user_id, recipe, saved_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET recipe=$3;`

	body, err := json.Marshal(e.Recipe)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, body, e.SavedAt)
	return err
}

func (r *recipeBookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SavedRecipe, error) {
	const q = `SELECT id, user_id, recipe, saved_at FROM saved_recipes WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSavedRecipe(row)
}

func (r *recipeBookRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.SavedRecipe, error) {
	const q = `
SELECT id, user_id, recipe, saved_at
  FROM saved_recipes
 WHERE user_id=$1
 ORDER BY saved_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.SavedRecipe
	for rows.Next() {
		e, err := scanSavedRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *recipeBookRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM saved_recipes WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSavedRecipe(row pgx.Row) (*model.SavedRecipe, error) {
	var (
		e    model.SavedRecipe
		body []byte
	)
	if err := row.Scan(&e.ID, &e.UserID, &body, &e.SavedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(body, &e.Recipe); err != nil {
		return nil, err
	}
	return &e, nil
}
