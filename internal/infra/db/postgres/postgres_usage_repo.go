package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

var _ repository.UsageRecordRepository = (*usageRepo)(nil)

type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) Append(ctx context.Context, tx repository.Tx, rec *model.UsageRecord) error {
	const q = `
INSERT INTO usage_records (id, user_id, occurred_at, action_kind, quantity, channel)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.UserID, rec.OccurredAt, string(rec.ActionKind), rec.Quantity, string(rec.Channel))
	return err
}

func (r *usageRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, since time.Time) ([]*model.UsageRecord, error) {
	const q = `
SELECT id, user_id, occurred_at, action_kind, quantity, channel
  FROM usage_records
 WHERE user_id=$1 AND occurred_at >= $2
 ORDER BY occurred_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.UsageRecord
	for rows.Next() {
		rec, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneByRetention deletes records older than their owner's retention window
// in one pass. Unlimited-retention subscriptions keep everything.
func (r *usageRepo) PruneByRetention(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `
DELETE FROM usage_records ur
 USING user_subscriptions s
 WHERE s.user_id = ur.user_id
   AND s.history_retention_days >= 0
   AND ur.occurred_at < NOW() - (s.history_retention_days * INTERVAL '1 day');`
	tag, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUsage(row pgx.Row) (*model.UsageRecord, error) {
	var (
		rec     model.UsageRecord
		kind    string
		channel string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.OccurredAt, &kind, &rec.Quantity, &channel); err != nil {
		return nil, err
	}
	rec.ActionKind = model.ActionKind(kind)
	rec.Channel = model.UsageChannel(channel)
	return &rec, nil
}
