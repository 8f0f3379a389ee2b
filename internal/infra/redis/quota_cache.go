package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/usecase"
)

var _ usecase.QuotaCache = (*QuotaCache)(nil)

// QuotaCache holds subscription snapshots so the hot CanPerform path can skip
// Postgres. Entries are short-lived; writers refresh after every charge.
type QuotaCache struct {
	cli *Client
	ttl time.Duration
}

func NewQuotaCache(cli *Client, ttl time.Duration) *QuotaCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QuotaCache{cli: cli, ttl: ttl}
}

func quotaKey(userID string) string { return "quota:sub:" + userID }

func (c *QuotaCache) Get(ctx context.Context, userID string) (*model.UserSubscription, error) {
	raw, err := c.cli.Get(ctx, quotaKey(userID))
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var sub model.UserSubscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *QuotaCache) Put(ctx context.Context, sub *model.UserSubscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, quotaKey(sub.UserID), raw, c.ttl)
}

func (c *QuotaCache) Invalidate(ctx context.Context, userID string) error {
	return c.cli.Del(ctx, quotaKey(userID))
}
