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

var _ repository.ScanRepository = (*scanRepo)(nil)

type scanRepo struct {
	pool *pgxpool.Pool
}

func NewScanRepo(pool *pgxpool.Pool) *scanRepo {
	return &scanRepo{pool: pool}
}

func (r *scanRepo) Save(ctx context.Context, tx repository.Tx, s *model.ScanResult) error {
	const q = `
INSERT INTO scan_results (id, user_id, status, ingredients, provider, processing_ms, failure_note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  status=$3, ingredients=$4, provider=$5, processing_ms=$6, failure_note=$7;`

	ingredients, err := json.Marshal(s.Ingredients)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, string(s.Status), ingredients, s.Provider, s.ProcessingMs, s.FailureNote, s.CreatedAt)
	return err
}

func (r *scanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ScanResult, error) {
	const q = `
SELECT id, user_id, status, ingredients, provider, processing_ms, failure_note, created_at
  FROM scan_results WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanScanResult(row)
}

func (r *scanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ScanResult, error) {
	const q = `
SELECT id, user_id, status, ingredients, provider, processing_ms, failure_note, created_at
  FROM scan_results
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ScanResult
	for rows.Next() {
		s, err := scanScanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanScanResult(row pgx.Row) (*model.ScanResult, error) {
	var (
		s           model.ScanResult
		status      string
		ingredients []byte
	)
	err := row.Scan(&s.ID, &s.UserID, &status, &ingredients, &s.Provider, &s.ProcessingMs, &s.FailureNote, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Status = model.ScanStatus(status)
	if len(ingredients) > 0 {
		if err := json.Unmarshal(ingredients, &s.Ingredients); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
