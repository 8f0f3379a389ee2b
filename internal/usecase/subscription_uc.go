// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
	"foodlens/internal/infra/metrics"
)

// QuotaCache is an optional read-through cache for subscription snapshots.
// Implementations must tolerate misses (return domain.ErrNotFound).
type QuotaCache interface {
	Get(ctx context.Context, userID string) (*model.UserSubscription, error)
	Put(ctx context.Context, sub *model.UserSubscription) error
	Invalidate(ctx context.Context, userID string) error
}

// SubscriptionUseCase owns tier lifecycle and the usage/quota tracker:
// gate-before, record-after, periodic reset.
type SubscriptionUseCase interface {
	EnsureSubscription(ctx context.Context, userID string) (*model.UserSubscription, error)
	Get(ctx context.Context, userID string) (*model.UserSubscription, error)
	ChangeTier(ctx context.Context, userID string, name model.TierName) (*model.UserSubscription, error)

	// CanPerform is side-effect free: a due-but-unapplied reset is evaluated
	// as if it had happened.
	CanPerform(ctx context.Context, userID string, kind model.ActionKind) (bool, error)
	// RecordUsage charges one action (primary allowance first, bonus credit
	// as fallback) and appends a usage record. Returns ErrQuotaExceeded when
	// neither channel has room.
	RecordUsage(ctx context.Context, userID string, kind model.ActionKind) (*model.UserSubscription, error)
	GrantBonus(ctx context.Context, userID string, credits int) (*model.UserSubscription, error)

	HasCapability(ctx context.Context, userID string, c model.Capability) (bool, error)
	UsageHistory(ctx context.Context, userID string, since time.Time) ([]*model.UsageRecord, error)

	// Maintenance entry points, driven by the scheduler.
	ResetDue(ctx context.Context, limit int) (int, error)
	PruneUsage(ctx context.Context) (int64, error)

	CountByTier(ctx context.Context) (map[string]int, error)
}

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	tiers repository.TierRepository
	usage repository.UsageRecordRepository
	tx    repository.TransactionManager
	cache QuotaCache // nil disables caching
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	tiers repository.TierRepository,
	usage repository.UsageRecordRepository,
	tx repository.TransactionManager,
	cache QuotaCache,
	log *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{subs: subs, tiers: tiers, usage: usage, tx: tx, cache: cache, log: log}
}

// EnsureSubscription returns the user's subscription, creating a free-tier
// one on first contact.
func (uc *subscriptionUC) EnsureSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.UserSubscription
	err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.subs.AcquireUserLock(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := uc.subs.FindByUser(ctx, tx, userID)
		if err == nil {
			out = sub
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		tier, err := uc.tiers.FindByName(ctx, model.TierFree)
		if err != nil {
			return err
		}
		sub, err = model.NewUserSubscription(uuid.NewString(), userID, tier)
		if err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		uc.log.Info().Str("user_id", userID).Msg("created free-tier subscription")
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.cachePut(ctx, out)
	return out, nil
}

func (uc *subscriptionUC) Get(ctx context.Context, userID string) (*model.UserSubscription, error) {
	if uc.cache != nil {
		if sub, err := uc.cache.Get(ctx, userID); err == nil {
			return sub, nil
		}
	}
	sub, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	uc.cachePut(ctx, sub)
	return sub, nil
}

// ChangeTier swaps the subscription to the new tier's defaults wholesale.
// Usage does not carry over across a plan change; the window restarts.
func (uc *subscriptionUC) ChangeTier(ctx context.Context, userID string, name model.TierName) (*model.UserSubscription, error) {
	tier, err := uc.tiers.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	var out *model.UserSubscription
	err = uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.subs.AcquireUserLock(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := uc.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		next := sub.ApplyTier(tier, time.Now())
		if err := uc.subs.Save(ctx, tx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("tier", string(name)).Msg("tier changed")
	uc.cachePut(ctx, out)
	return out, nil
}

func (uc *subscriptionUC) CanPerform(ctx context.Context, userID string, kind model.ActionKind) (bool, error) {
	sub, err := uc.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	q := sub.Quota
	if now := time.Now(); q.NeedsReset(now) {
		tier, err := uc.tiers.FindByName(ctx, sub.Tier)
		if err != nil {
			return false, err
		}
		q = q.Reset(tier.Defaults, now)
	}
	allowed := q.CanPerform()
	if !allowed {
		metrics.QuotaBlocked(string(sub.Tier))
	}
	return allowed, nil
}

func (uc *subscriptionUC) RecordUsage(ctx context.Context, userID string, kind model.ActionKind) (*model.UserSubscription, error) {
	var out *model.UserSubscription
	var channel model.UsageChannel
	err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.subs.AcquireUserLock(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := uc.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		if sub.Quota.NeedsReset(now) {
			tier, err := uc.tiers.FindByName(ctx, sub.Tier)
			if err != nil {
				return err
			}
			sub.Quota = sub.Quota.Reset(tier.Defaults, now)
		}

		q, ch, err := sub.Quota.Consume()
		if err != nil {
			return err
		}
		sub.Quota = q
		sub.UpdatedAt = now
		channel = ch

		rec, err := model.NewUsageRecord(userID, kind, 1, ch)
		if err != nil {
			return err
		}
		if err := uc.usage.Append(ctx, tx, rec); err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.UsageCharged(string(out.Tier), string(channel))
	uc.cachePut(ctx, out)
	return out, nil
}

// GrantBonus adds rewarded-ad credits. A no-op for unlimited tiers, where
// bonus credits have nothing to unlock.
func (uc *subscriptionUC) GrantBonus(ctx context.Context, userID string, credits int) (*model.UserSubscription, error) {
	if credits <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.UserSubscription
	granted := false
	err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.subs.AcquireUserLock(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := uc.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if sub.Quota.Unlimited() {
			out = sub
			return nil
		}
		sub.Quota = sub.Quota.GrantBonus(credits)
		sub.UpdatedAt = time.Now()

		rec, err := model.NewUsageRecord(userID, model.ActionBonusGrant, credits, model.ChannelBonus)
		if err != nil {
			return err
		}
		if err := uc.usage.Append(ctx, tx, rec); err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		granted = true
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if granted {
		metrics.BonusGranted(credits)
		uc.cachePut(ctx, out)
	}
	return out, nil
}

func (uc *subscriptionUC) HasCapability(ctx context.Context, userID string, c model.Capability) (bool, error) {
	sub, err := uc.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	tier, err := uc.tiers.FindByName(ctx, sub.Tier)
	if err != nil {
		return false, err
	}
	return tier.Allows(c), nil
}

func (uc *subscriptionUC) UsageHistory(ctx context.Context, userID string, since time.Time) ([]*model.UsageRecord, error) {
	return uc.usage.ListByUser(ctx, repository.NoTX, userID, since)
}

// ResetDue applies pending window resets for up to limit subscriptions.
func (uc *subscriptionUC) ResetDue(ctx context.Context, limit int) (int, error) {
	count := 0
	err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		due, err := uc.subs.FindDueForReset(ctx, tx, now, limit)
		if err != nil {
			return err
		}
		for _, sub := range due {
			tier, err := uc.tiers.FindByName(ctx, sub.Tier)
			if err != nil {
				return err
			}
			sub.Quota = sub.Quota.Reset(tier.Defaults, now)
			sub.UpdatedAt = now
			if err := uc.subs.Save(ctx, tx, sub); err != nil {
				return err
			}
			if uc.cache != nil {
				_ = uc.cache.Invalidate(ctx, sub.UserID)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

func (uc *subscriptionUC) PruneUsage(ctx context.Context) (int64, error) {
	return uc.usage.PruneByRetention(ctx, repository.NoTX)
}

func (uc *subscriptionUC) CountByTier(ctx context.Context) (map[string]int, error) {
	return uc.subs.CountByTier(ctx)
}

func (uc *subscriptionUC) cachePut(ctx context.Context, sub *model.UserSubscription) {
	if uc.cache == nil || sub == nil {
		return
	}
	if err := uc.cache.Put(ctx, sub); err != nil {
		uc.log.Warn().Err(err).Str("user_id", sub.UserID).Msg("quota cache put failed")
	}
}
