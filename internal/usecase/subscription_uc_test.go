// File: internal/usecase/subscription_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
)

func TestSubscriptionUC_EnsureSubscription(t *testing.T) {
	t.Run("should create a free-tier subscription on first contact", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()

		sub, err := uc.EnsureSubscription(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Tier != model.TierFree {
			t.Errorf("expected free tier, got %s", sub.Tier)
		}
		if sub.Quota.PeriodicAllowance != 1 || sub.Quota.BonusAllowance != 3 {
			t.Errorf("unexpected quota defaults: %+v", sub.Quota)
		}
	})

	t.Run("should be idempotent for an existing user", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()

		first, err := uc.EnsureSubscription(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := uc.EnsureSubscription(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("expected same subscription, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("should reject an empty user id", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()

		if _, err := uc.EnsureSubscription(context.Background(), ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSubscriptionUC_RecordUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("should charge primary first then bonus then deny", func(t *testing.T) {
		uc, _, _, usage := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Free tier: 1 primary + 3 bonus.
		sub, err := uc.RecordUsage(ctx, "user-1", model.ActionScan)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Quota.Used != 1 || sub.Quota.BonusAllowance != 3 {
			t.Errorf("expected primary charge, got %+v", sub.Quota)
		}

		for i := 0; i < 3; i++ {
			sub, err = uc.RecordUsage(ctx, "user-1", model.ActionScan)
			if err != nil {
				t.Fatalf("bonus charge %d: %v", i, err)
			}
		}
		if sub.Quota.BonusAllowance != 0 {
			t.Errorf("expected bonus drained, got %d", sub.Quota.BonusAllowance)
		}

		if _, err := uc.RecordUsage(ctx, "user-1", model.ActionScan); !errors.Is(err, domain.ErrQuotaExceeded) {
			t.Errorf("expected ErrQuotaExceeded, got %v", err)
		}
		if got := usage.count(); got != 4 {
			t.Errorf("expected 4 usage records, got %d", got)
		}
	})

	t.Run("should never deny an unlimited tier", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := uc.ChangeTier(ctx, "user-1", model.TierProfessional); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var sub *model.UserSubscription
		var err error
		for i := 0; i < 100; i++ {
			sub, err = uc.RecordUsage(ctx, "user-1", model.ActionScan)
			if err != nil {
				t.Fatalf("charge %d: %v", i, err)
			}
		}
		if sub.Quota.Used != 100 {
			t.Errorf("expected usage counted to 100, got %d", sub.Quota.Used)
		}
	})

	t.Run("should apply a due window reset before charging", func(t *testing.T) {
		uc, subs, _, _ := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Exhaust everything, then push the boundary into the past.
		for i := 0; i < 4; i++ {
			if _, err := uc.RecordUsage(ctx, "user-1", model.ActionScan); err != nil {
				t.Fatalf("charge %d: %v", i, err)
			}
		}
		stored := subs.byUser["user-1"]
		past := time.Now().Add(-time.Minute)
		stored.Quota.PeriodResetAt = &past

		sub, err := uc.RecordUsage(ctx, "user-1", model.ActionScan)
		if err != nil {
			t.Fatalf("expected reset to unblock charge, got %v", err)
		}
		if sub.Quota.Used != 1 || sub.Quota.BonusAllowance != 3 {
			t.Errorf("expected fresh window after reset, got %+v", sub.Quota)
		}
	})
}

func TestSubscriptionUC_CanPerform(t *testing.T) {
	ctx := context.Background()

	t.Run("should be side-effect free", func(t *testing.T) {
		uc, subs, _, _ := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i := 0; i < 5; i++ {
			ok, err := uc.CanPerform(ctx, "user-1", model.ActionScan)
			if err != nil || !ok {
				t.Fatalf("check %d: ok=%v err=%v", i, ok, err)
			}
		}
		if subs.byUser["user-1"].Quota.Used != 0 {
			t.Errorf("CanPerform must not consume, used=%d", subs.byUser["user-1"].Quota.Used)
		}
	})

	t.Run("should evaluate a due reset as if applied", func(t *testing.T) {
		uc, subs, _, _ := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < 4; i++ {
			if _, err := uc.RecordUsage(ctx, "user-1", model.ActionScan); err != nil {
				t.Fatalf("charge %d: %v", i, err)
			}
		}
		if ok, _ := uc.CanPerform(ctx, "user-1", model.ActionScan); ok {
			t.Fatal("expected exhausted quota to deny")
		}

		stored := subs.byUser["user-1"]
		past := time.Now().Add(-time.Second)
		stored.Quota.PeriodResetAt = &past

		ok, err := uc.CanPerform(ctx, "user-1", model.ActionScan)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected due reset to permit the action")
		}
		if subs.byUser["user-1"].Quota.Used != 4 {
			t.Error("CanPerform must not persist the simulated reset")
		}
	})
}

func TestSubscriptionUC_GrantBonus(t *testing.T) {
	ctx := context.Background()

	t.Run("should add credits and log a grant record", func(t *testing.T) {
		uc, _, _, usage := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sub, err := uc.GrantBonus(ctx, "user-1", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Quota.BonusAllowance != 5 {
			t.Errorf("expected 3+2 bonus credits, got %d", sub.Quota.BonusAllowance)
		}
		if got := usage.count(); got != 1 {
			t.Errorf("expected 1 grant record, got %d", got)
		}
	})

	t.Run("should no-op on unlimited tiers", func(t *testing.T) {
		uc, _, _, usage := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := uc.ChangeTier(ctx, "user-1", model.TierProfessional); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sub, err := uc.GrantBonus(ctx, "user-1", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sub.Quota.Unlimited() {
			t.Error("expected quota to stay unlimited")
		}
		if got := usage.count(); got != 0 {
			t.Errorf("expected no grant record, got %d", got)
		}
	})

	t.Run("should reject non-positive credits", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()
		if _, err := uc.GrantBonus(ctx, "user-1", 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSubscriptionUC_ChangeTier(t *testing.T) {
	ctx := context.Background()

	t.Run("should replace the quota wholesale", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()
		if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := uc.RecordUsage(ctx, "user-1", model.ActionScan); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sub, err := uc.ChangeTier(ctx, "user-1", model.TierPremium)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Tier != model.TierPremium {
			t.Errorf("expected premium, got %s", sub.Tier)
		}
		if sub.Quota.Used != 0 || sub.Quota.PeriodicAllowance != 10 {
			t.Errorf("expected fresh premium window, got %+v", sub.Quota)
		}
	})

	t.Run("should fail on an unknown tier", func(t *testing.T) {
		uc, _, _, _ := newSubscriptionFixture()
		if _, err := uc.ChangeTier(ctx, "user-1", "platinum"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubscriptionUC_ResetDue(t *testing.T) {
	t.Run("should reset only due subscriptions", func(t *testing.T) {
		ctx := context.Background()
		uc, subs, _, _ := newSubscriptionFixture()
		for _, id := range []string{"due-1", "due-2", "fresh"} {
			if _, err := uc.EnsureSubscription(ctx, id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		past := time.Now().Add(-time.Hour)
		subs.byUser["due-1"].Quota.PeriodResetAt = &past
		subs.byUser["due-1"].Quota.Used = 1
		subs.byUser["due-2"].Quota.PeriodResetAt = &past

		n, err := uc.ResetDue(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 resets, got %d", n)
		}
		if subs.byUser["due-1"].Quota.Used != 0 {
			t.Error("expected due-1 usage zeroed")
		}
		if subs.byUser["due-1"].Quota.NeedsReset(time.Now()) {
			t.Error("expected due-1 boundary advanced")
		}
	})
}

func TestSubscriptionUC_HasCapability(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newSubscriptionFixture()
	if _, err := uc.EnsureSubscription(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("should deny premium features on the free tier", func(t *testing.T) {
		ok, err := uc.HasCapability(ctx, "user-1", model.CapRecipeBook)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("free tier must not have the recipe book")
		}
	})

	t.Run("should allow them after upgrading", func(t *testing.T) {
		if _, err := uc.ChangeTier(ctx, "user-1", model.TierPremium); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ok, err := uc.HasCapability(ctx, "user-1", model.CapRecipeBook)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("premium tier should have the recipe book")
		}
	})
}
