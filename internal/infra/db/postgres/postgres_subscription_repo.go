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

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (
  id, user_id, tier, periodic_allowance, used, bonus_allowance,
  period_reset_at, history_retention_days, started_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (user_id) DO UPDATE SET
  tier=$3, periodic_allowance=$4, used=$5, bonus_allowance=$6,
  period_reset_at=$7, history_retention_days=$8, updated_at=$10;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, string(s.Tier),
		s.Quota.PeriodicAllowance, s.Quota.Used, s.Quota.BonusAllowance,
		s.Quota.PeriodResetAt, s.Quota.HistoryRetentionDays,
		s.StartedAt, s.UpdatedAt)
	return err
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	const q = `
SELECT id, user_id, tier, periodic_allowance, used, bonus_allowance,
       period_reset_at, history_retention_days, started_at, updated_at
  FROM user_subscriptions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindDueForReset(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserSubscription, error) {
	const q = `
SELECT id, user_id, tier, periodic_allowance, used, bonus_allowance,
       period_reset_at, history_retention_days, started_at, updated_at
  FROM user_subscriptions
 WHERE period_reset_at IS NOT NULL AND period_reset_at <= $1
 ORDER BY period_reset_at ASC
 LIMIT $2
 FOR UPDATE SKIP LOCKED;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.UserSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AcquireUserLock takes an advisory xact lock keyed by user, serializing
// quota read-modify-write cycles for that user. Released on commit/rollback.
func (r *subscriptionRepo) AcquireUserLock(ctx context.Context, tx repository.Tx, userID string) error {
	if _, ok := tx.(pgx.Tx); !ok {
		return domain.ErrInvalidExecContext
	}
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64("quota:"+userID))
	return err
}

func (r *subscriptionRepo) CountByTier(ctx context.Context) (map[string]int, error) {
	const q = `SELECT tier, COUNT(*) FROM user_subscriptions GROUP BY tier;`
	rows, err := queryRows(ctx, r.pool, nil, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		out[tier] = n
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*model.UserSubscription, error) {
	var (
		s    model.UserSubscription
		tier string
	)
	err := row.Scan(&s.ID, &s.UserID, &tier,
		&s.Quota.PeriodicAllowance, &s.Quota.Used, &s.Quota.BonusAllowance,
		&s.Quota.PeriodResetAt, &s.Quota.HistoryRetentionDays,
		&s.StartedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Tier = model.TierName(tier)
	return &s, nil
}
