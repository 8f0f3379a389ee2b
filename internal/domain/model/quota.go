package model

import (
	"time"

	"foodlens/internal/domain"

	"github.com/oklog/ulid/v2"
)

// Sentinels for "no limit".
const (
	UnlimitedAllowance = -1
	UnlimitedRetention = -1
)

// ActionKind identifies a chargeable action.
type ActionKind string

const (
	ActionScan       ActionKind = "scan"
	ActionBonusGrant ActionKind = "bonus_grant"
)

// UsageChannel says which allowance a consumed action was charged against.
type UsageChannel string

const (
	ChannelPrimary UsageChannel = "primary"
	ChannelBonus   UsageChannel = "bonus"
)

// QuotaDefaults are the per-tier starting values for a quota window.
type QuotaDefaults struct {
	PeriodicAllowance    int           `yaml:"periodic_allowance"`
	BonusAllowance       int           `yaml:"bonus_allowance"`
	Period               time.Duration `yaml:"period"`
	HistoryRetentionDays int           `yaml:"history_retention_days"`
}

// UsageQuota is the current allowance window for one user. All transitions
// are pure: methods take a value and return the next value, never mutating
// in place. Callers serialize read-modify-write cycles (the use case holds a
// per-user lock while applying a transition and saving the result).
type UsageQuota struct {
	PeriodicAllowance    int        `json:"periodic_allowance"`
	Used                 int        `json:"used"`
	BonusAllowance       int        `json:"bonus_allowance"`
	PeriodResetAt        *time.Time `json:"period_reset_at,omitempty"`
	HistoryRetentionDays int        `json:"history_retention_days"`
}

// NewUsageQuota builds a fresh window from tier defaults.
func NewUsageQuota(d QuotaDefaults, now time.Time) UsageQuota {
	q := UsageQuota{
		PeriodicAllowance:    d.PeriodicAllowance,
		Used:                 0,
		BonusAllowance:       d.BonusAllowance,
		HistoryRetentionDays: d.HistoryRetentionDays,
	}
	if d.Period > 0 {
		at := now.Add(d.Period)
		q.PeriodResetAt = &at
	}
	return q
}

func (q UsageQuota) Unlimited() bool { return q.PeriodicAllowance == UnlimitedAllowance }

// CanPerform reports whether another chargeable action is permitted.
// Side-effect free. Bonus credits are a fallback once the primary
// allowance is exhausted.
func (q UsageQuota) CanPerform() bool {
	if q.Unlimited() {
		return true
	}
	return q.Used < q.PeriodicAllowance || q.BonusAllowance > 0
}

// Consume charges one action, preferring the primary allowance and falling
// back to a bonus credit. Returns the next quota value and the channel used.
func (q UsageQuota) Consume() (UsageQuota, UsageChannel, error) {
	if q.Unlimited() || q.Used < q.PeriodicAllowance {
		q.Used++
		return q, ChannelPrimary, nil
	}
	if q.BonusAllowance > 0 {
		q.BonusAllowance--
		return q, ChannelBonus, nil
	}
	return q, "", domain.ErrQuotaExceeded
}

// GrantBonus adds rewarded credits. A no-op on unlimited windows, where a
// bonus credit has nothing to unlock.
func (q UsageQuota) GrantBonus(n int) UsageQuota {
	if q.Unlimited() || n <= 0 {
		return q
	}
	q.BonusAllowance += n
	return q
}

// NeedsReset is true once now is at or past the window boundary.
func (q UsageQuota) NeedsReset(now time.Time) bool {
	return q.PeriodResetAt != nil && !now.Before(*q.PeriodResetAt)
}

// Reset starts a new window: usage zeroed, bonus restored to the tier
// default, boundary advanced to now + period.
func (q UsageQuota) Reset(d QuotaDefaults, now time.Time) UsageQuota {
	return NewUsageQuota(d, now)
}

// Remaining is the primary allowance left, or UnlimitedAllowance.
func (q UsageQuota) Remaining() int {
	if q.Unlimited() {
		return UnlimitedAllowance
	}
	if left := q.PeriodicAllowance - q.Used; left > 0 {
		return left
	}
	return 0
}

// UsageRecord is an immutable, append-only log entry for one charged action.
type UsageRecord struct {
	ID         string       `json:"id"` // ULID, sortable by time
	UserID     string       `json:"user_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	ActionKind ActionKind   `json:"action_kind"`
	Quantity   int          `json:"quantity"`
	Channel    UsageChannel `json:"channel"`
}

func NewUsageRecord(userID string, kind ActionKind, quantity int, channel UsageChannel) (*UsageRecord, error) {
	if userID == "" || kind == "" || quantity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &UsageRecord{
		ID:         ulid.Make().String(),
		UserID:     userID,
		OccurredAt: time.Now(),
		ActionKind: kind,
		Quantity:   quantity,
		Channel:    channel,
	}, nil
}

// UserSubscription binds a user to a tier and carries the live quota window.
// It is swapped wholesale on tier change, never partially mutated.
type UserSubscription struct {
	ID        string     `json:"id"` // UUID
	UserID    string     `json:"user_id"`
	Tier      TierName   `json:"tier"`
	Quota     UsageQuota `json:"quota"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewUserSubscription creates a subscription on the given tier with a fresh
// quota window.
func NewUserSubscription(id, userID string, tier *SubscriptionTier) (*UserSubscription, error) {
	if id == "" || userID == "" || tier.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UserSubscription{
		ID:        id,
		UserID:    userID,
		Tier:      tier.Name,
		Quota:     NewUsageQuota(tier.Defaults, now),
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyTier replaces the quota wholesale with the new tier's defaults.
// Partial usage does not carry over: a plan change deliberately restarts
// the window (the billing source data needed to prorate does not exist
// in this system).
func (s UserSubscription) ApplyTier(tier *SubscriptionTier, now time.Time) UserSubscription {
	s.Tier = tier.Name
	s.Quota = NewUsageQuota(tier.Defaults, now)
	s.UpdatedAt = now
	return s
}
