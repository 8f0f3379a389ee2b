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

var _ repository.TierRepository = (*tierRepo)(nil)

type tierRepo struct {
	pool *pgxpool.Pool
}

func NewTierRepo(pool *pgxpool.Pool) *tierRepo {
	return &tierRepo{pool: pool}
}

func (r *tierRepo) Save(ctx context.Context, t *model.SubscriptionTier) error {
	const q = `
INSERT INTO subscription_tiers (
  name, price_cents, billing_period_days, capabilities,
  periodic_allowance, bonus_allowance, period_seconds, history_retention_days, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (name) DO UPDATE SET
  price_cents=$2, billing_period_days=$3, capabilities=$4,
  periodic_allowance=$5, bonus_allowance=$6, period_seconds=$7, history_retention_days=$8;`

	caps := make([]string, 0, len(t.Capabilities))
	for _, c := range t.Capabilities {
		caps = append(caps, string(c))
	}
	_, err := execSQL(ctx, r.pool, nil, q,
		string(t.Name), t.PriceCents, t.BillingPeriodDays, caps,
		t.Defaults.PeriodicAllowance, t.Defaults.BonusAllowance,
		int64(t.Defaults.Period/time.Second), t.Defaults.HistoryRetentionDays, t.CreatedAt)
	return err
}

func (r *tierRepo) FindByName(ctx context.Context, name model.TierName) (*model.SubscriptionTier, error) {
	const q = `
SELECT name, price_cents, billing_period_days, capabilities,
       periodic_allowance, bonus_allowance, period_seconds, history_retention_days, created_at
  FROM subscription_tiers WHERE name=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, string(name))
	if err != nil {
		return nil, err
	}
	return scanTier(row)
}

func (r *tierRepo) ListAll(ctx context.Context) ([]*model.SubscriptionTier, error) {
	const q = `
SELECT name, price_cents, billing_period_days, capabilities,
       periodic_allowance, bonus_allowance, period_seconds, history_retention_days, created_at
  FROM subscription_tiers ORDER BY price_cents ASC;`
	rows, err := queryRows(ctx, r.pool, nil, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.SubscriptionTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTier(row pgx.Row) (*model.SubscriptionTier, error) {
	var (
		t       model.SubscriptionTier
		name    string
		caps    []string
		periodS int64
	)
	err := row.Scan(&name, &t.PriceCents, &t.BillingPeriodDays, &caps,
		&t.Defaults.PeriodicAllowance, &t.Defaults.BonusAllowance,
		&periodS, &t.Defaults.HistoryRetentionDays, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.Name = model.TierName(name)
	t.Defaults.Period = time.Duration(periodS) * time.Second
	for _, c := range caps {
		t.Capabilities = append(t.Capabilities, model.Capability(c))
	}
	return &t, nil
}
