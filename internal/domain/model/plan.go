package model

import (
	"time"

	"foodlens/internal/domain"
)

type TierName string

const (
	TierFree         TierName = "free"
	TierPremium      TierName = "premium"
	TierProfessional TierName = "professional"
)

// Capability is a closed set of tier-gated features.
type Capability string

const (
	CapRecipeBook         Capability = "recipe_book"
	CapMealPlanning       Capability = "meal_planning"
	CapUnlimitedScans     Capability = "unlimited_scans"
	CapAdFree             Capability = "ad_free"
	CapPriorityProcessing Capability = "priority_processing"
)

// SubscriptionTier bundles a price, a capability set, and the quota defaults
// applied whenever a user's quota window is (re)created for this tier.
type SubscriptionTier struct {
	Name              TierName
	PriceCents        int64
	BillingPeriodDays int
	Capabilities      []Capability
	Defaults          QuotaDefaults
	CreatedAt         time.Time
}

func (t *SubscriptionTier) IsZero() bool { return t == nil || t.Name == "" }

func (t *SubscriptionTier) Allows(c Capability) bool {
	for _, have := range t.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// NewSubscriptionTier validates and constructs a tier.
func NewSubscriptionTier(name TierName, priceCents int64, billingPeriodDays int, caps []Capability, defaults QuotaDefaults) (*SubscriptionTier, error) {
	switch name {
	case TierFree, TierPremium, TierProfessional:
	default:
		return nil, domain.ErrInvalidArgument
	}
	if priceCents < 0 || billingPeriodDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if defaults.Period <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionTier{
		Name:              name,
		PriceCents:        priceCents,
		BillingPeriodDays: billingPeriodDays,
		Capabilities:      caps,
		Defaults:          defaults,
		CreatedAt:         time.Now(),
	}, nil
}

// DefaultTiers returns the built-in plan set used by cmd/seed and by tests.
// The professional tier carries no bonus credits: with unlimited scans a
// rewarded-ad credit has nothing to unlock.
func DefaultTiers() []*SubscriptionTier {
	now := time.Now()
	return []*SubscriptionTier{
		{
			Name:              TierFree,
			PriceCents:        0,
			BillingPeriodDays: 30,
			Capabilities:      nil,
			Defaults: QuotaDefaults{
				PeriodicAllowance:    1,
				BonusAllowance:       3,
				Period:               24 * time.Hour,
				HistoryRetentionDays: 7,
			},
			CreatedAt: now,
		},
		{
			Name:              TierPremium,
			PriceCents:        499,
			BillingPeriodDays: 30,
			Capabilities:      []Capability{CapRecipeBook, CapMealPlanning, CapAdFree},
			Defaults: QuotaDefaults{
				PeriodicAllowance:    10,
				BonusAllowance:       5,
				Period:               24 * time.Hour,
				HistoryRetentionDays: 90,
			},
			CreatedAt: now,
		},
		{
			Name:              TierProfessional,
			PriceCents:        999,
			BillingPeriodDays: 30,
			Capabilities: []Capability{
				CapRecipeBook, CapMealPlanning, CapUnlimitedScans, CapAdFree, CapPriorityProcessing,
			},
			Defaults: QuotaDefaults{
				PeriodicAllowance:    UnlimitedAllowance,
				BonusAllowance:       0,
				Period:               24 * time.Hour,
				HistoryRetentionDays: UnlimitedRetention,
			},
			CreatedAt: now,
		},
	}
}
