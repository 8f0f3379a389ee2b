package repository

import (
	"context"

	"foodlens/internal/domain/model"
)

// TierRepository is the port for the subscription tier catalog.
type TierRepository interface {
	Save(ctx context.Context, tier *model.SubscriptionTier) error
	FindByName(ctx context.Context, name model.TierName) (*model.SubscriptionTier, error)
	ListAll(ctx context.Context) ([]*model.SubscriptionTier, error)
}
