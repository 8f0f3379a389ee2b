package repository

import (
	"context"
	"time"

	"foodlens/internal/domain/model"
)

// UsageRecordRepository is the append-only usage log port.
type UsageRecordRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.UsageRecord) error
	ListByUser(ctx context.Context, tx Tx, userID string, since time.Time) ([]*model.UsageRecord, error)

	// PruneByRetention deletes records older than each owner's
	// history-retention window (subscriptions with unlimited retention are
	// skipped) and returns the number removed.
	PruneByRetention(ctx context.Context, tx Tx) (int64, error)
}
