// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- in-memory repositories ---

type memSubscriptionRepo struct {
	mu     sync.RWMutex
	byUser map[string]*model.UserSubscription

	SaveFunc        func(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error
	AcquireLockFunc func(ctx context.Context, tx repository.Tx, userID string) error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{byUser: map[string]*model.UserSubscription{}}
}

func (r *memSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, sub)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.byUser[sub.UserID] = &cp
	return nil
}

func (r *memSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *memSubscriptionRepo) FindDueForReset(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.UserSubscription
	for _, sub := range r.byUser {
		if sub.Quota.NeedsReset(now) {
			cp := *sub
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) AcquireUserLock(ctx context.Context, tx repository.Tx, userID string) error {
	if r.AcquireLockFunc != nil {
		return r.AcquireLockFunc(ctx, tx, userID)
	}
	return nil
}

func (r *memSubscriptionRepo) CountByTier(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]int{}
	for _, sub := range r.byUser {
		out[string(sub.Tier)]++
	}
	return out, nil
}

type memTierRepo struct {
	mu     sync.RWMutex
	byName map[model.TierName]*model.SubscriptionTier
}

func newMemTierRepo() *memTierRepo {
	r := &memTierRepo{byName: map[model.TierName]*model.SubscriptionTier{}}
	for _, t := range model.DefaultTiers() {
		r.byName[t.Name] = t
	}
	return r
}

func (r *memTierRepo) Save(ctx context.Context, tier *model.SubscriptionTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[tier.Name] = tier
	return nil
}

func (r *memTierRepo) FindByName(ctx context.Context, name model.TierName) (*model.SubscriptionTier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tier, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tier, nil
}

func (r *memTierRepo) ListAll(ctx context.Context) ([]*model.SubscriptionTier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.SubscriptionTier, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	return out, nil
}

type memUsageRepo struct {
	mu   sync.RWMutex
	recs []*model.UsageRecord

	AppendFunc func(ctx context.Context, tx repository.Tx, rec *model.UsageRecord) error
}

func newMemUsageRepo() *memUsageRepo { return &memUsageRepo{} }

func (r *memUsageRepo) Append(ctx context.Context, tx repository.Tx, rec *model.UsageRecord) error {
	if r.AppendFunc != nil {
		return r.AppendFunc(ctx, tx, rec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *memUsageRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, since time.Time) ([]*model.UsageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.UsageRecord
	for _, rec := range r.recs {
		if rec.UserID == userID && !rec.OccurredAt.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memUsageRepo) PruneByRetention(ctx context.Context, tx repository.Tx) (int64, error) {
	return 0, nil
}

func (r *memUsageRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recs)
}

type memUserRepo struct {
	mu       sync.RWMutex
	byID     map[string]*model.User
	byDevice map[string]*model.User

	SaveFunc func(ctx context.Context, tx repository.Tx, user *model.User) error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*model.User{}, byDevice: map[string]*model.User{}}
}

func (r *memUserRepo) Save(ctx context.Context, tx repository.Tx, user *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, user)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.byID[user.ID] = &cp
	r.byDevice[user.DeviceID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByDeviceID(ctx context.Context, tx repository.Tx, deviceID string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byDevice[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) CountUsers(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

type memScanRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.ScanResult
}

func newMemScanRepo() *memScanRepo { return &memScanRepo{byID: map[string]*model.ScanResult{}} }

func (r *memScanRepo) Save(ctx context.Context, tx repository.Tx, scan *model.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *scan
	r.byID[scan.ID] = &cp
	return nil
}

func (r *memScanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ScanResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memScanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ScanResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.ScanResult
	for _, s := range r.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type memRecipeBookRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.SavedRecipe
}

func newMemRecipeBookRepo() *memRecipeBookRepo {
	return &memRecipeBookRepo{byID: map[string]*model.SavedRecipe{}}
}

func (r *memRecipeBookRepo) Save(ctx context.Context, tx repository.Tx, entry *model.SavedRecipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.byID[entry.ID] = &cp
	return nil
}

func (r *memRecipeBookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SavedRecipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memRecipeBookRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.SavedRecipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.SavedRecipe
	for _, e := range r.byID {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRecipeBookRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type memMealPlanRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.MealPlanEntry
}

func newMemMealPlanRepo() *memMealPlanRepo {
	return &memMealPlanRepo{byID: map[string]*model.MealPlanEntry{}}
}

func (r *memMealPlanRepo) Upsert(ctx context.Context, tx repository.Tx, entry *model.MealPlanEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.byID {
		if e.UserID == entry.UserID && e.Date.Equal(entry.Date) && e.Slot == entry.Slot {
			delete(r.byID, id)
		}
	}
	cp := *entry
	r.byID[entry.ID] = &cp
	return nil
}

func (r *memMealPlanRepo) ListRange(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]*model.MealPlanEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.MealPlanEntry
	for _, e := range r.byID {
		if e.UserID == userID && !e.Date.Before(from) && e.Date.Before(to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMealPlanRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// noopTxManager runs fn directly. Repositories above ignore the handle.
type noopTxManager struct{}

func (noopTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- adapter mocks ---

type mockVisionAdapter struct {
	DetectFunc func(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error)
	calls      int
}

func (m *mockVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	m.calls++
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, image, mime)
	}
	return &adapter.VisionResult{
		Ingredients: []model.DetectedIngredient{{Name: "tomato", Confidence: 0.95}},
		Provider:    m.Provider(),
		Elapsed:     5 * time.Millisecond,
	}, nil
}

func (m *mockVisionAdapter) Provider() string { return "mock-vision" }

type mockRecipeAdapter struct {
	SuggestFunc func(ctx context.Context, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error)
	calls       int
}

func (m *mockRecipeAdapter) SuggestRecipes(ctx context.Context, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error) {
	m.calls++
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, ingredients, prefs)
	}
	return []model.Recipe{{Title: "Tomato Soup", Ingredients: ingredients, MatchPercent: 100}}, nil
}

// newSubscriptionFixture wires a real subscription use case over the
// in-memory repositories.
func newSubscriptionFixture() (*subscriptionUC, *memSubscriptionRepo, *memTierRepo, *memUsageRepo) {
	subs := newMemSubscriptionRepo()
	tiers := newMemTierRepo()
	usage := newMemUsageRepo()
	uc := NewSubscriptionUseCase(subs, tiers, usage, noopTxManager{}, nil, newTestLogger())
	return uc, subs, tiers, usage
}
