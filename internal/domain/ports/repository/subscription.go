package repository

import (
	"context"
	"time"

	"foodlens/internal/domain/model"
)

// SubscriptionRepository is the port for per-user subscription + quota state.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)

	// FindDueForReset returns subscriptions whose quota window boundary is at
	// or before now, up to limit rows. Used by the maintenance scheduler.
	FindDueForReset(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.UserSubscription, error)

	// AcquireUserLock serializes quota read-modify-write for one user inside
	// the surrounding transaction. Implementations may no-op when there is
	// no shared store to race on.
	AcquireUserLock(ctx context.Context, tx Tx, userID string) error

	// CountByTier returns active subscription counts keyed by tier name.
	CountByTier(ctx context.Context) (map[string]int, error)
}
