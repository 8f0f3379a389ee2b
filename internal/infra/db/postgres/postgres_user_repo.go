package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, device_id, email, registered_at, last_active_at, dietary)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  device_id=$2, email=$3, last_active_at=$5, dietary=$6;`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.DeviceID, u.Email, u.RegisteredAt, u.LastActiveAt, u.Dietary)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, device_id, email, registered_at, last_active_at, dietary
  FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByDeviceID(ctx context.Context, tx repository.Tx, deviceID string) (*model.User, error) {
	const q = `
SELECT id, device_id, email, registered_at, last_active_at, dietary
  FROM users WHERE device_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, deviceID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) CountUsers(ctx context.Context) (int, error) {
	row, err := pickRow(ctx, r.pool, nil, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.DeviceID, &u.Email, &u.RegisteredAt, &u.LastActiveAt, &u.Dietary); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
