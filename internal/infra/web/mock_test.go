package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockUserUC struct {
	RegisterDeviceFunc func(ctx context.Context, deviceID, email string) (*model.User, error)
	GetFunc            func(ctx context.Context, id string) (*model.User, error)
	UpdateDietaryFunc  func(ctx context.Context, id string, tags []string) (*model.User, error)
}

var _ usecase.UserUseCase = (*mockUserUC)(nil)

func (m *mockUserUC) RegisterDevice(ctx context.Context, deviceID, email string) (*model.User, error) {
	if m.RegisterDeviceFunc != nil {
		return m.RegisterDeviceFunc(ctx, deviceID, email)
	}
	if deviceID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &model.User{ID: "user-1", DeviceID: deviceID, Email: email}, nil
}

func (m *mockUserUC) Get(ctx context.Context, id string) (*model.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &model.User{ID: id, DeviceID: "device-1"}, nil
}

func (m *mockUserUC) UpdateDietary(ctx context.Context, id string, tags []string) (*model.User, error) {
	if m.UpdateDietaryFunc != nil {
		return m.UpdateDietaryFunc(ctx, id, tags)
	}
	return &model.User{ID: id, DeviceID: "device-1", Dietary: tags}, nil
}

func (m *mockUserUC) CountUsers(ctx context.Context) (int, error) { return 1, nil }

type mockSubUC struct {
	EnsureFunc     func(ctx context.Context, userID string) (*model.UserSubscription, error)
	ChangeTierFunc func(ctx context.Context, userID string, name model.TierName) (*model.UserSubscription, error)
	GrantBonusFunc func(ctx context.Context, userID string, credits int) (*model.UserSubscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubUC)(nil)

func freeSub(userID string) *model.UserSubscription {
	reset := time.Now().Add(24 * time.Hour)
	return &model.UserSubscription{
		ID:     "sub-1",
		UserID: userID,
		Tier:   model.TierFree,
		Quota: model.UsageQuota{
			PeriodicAllowance: 1,
			BonusAllowance:    3,
			PeriodResetAt:     &reset,
		},
	}
}

func (m *mockSubUC) EnsureSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, userID)
	}
	return freeSub(userID), nil
}

func (m *mockSubUC) Get(ctx context.Context, userID string) (*model.UserSubscription, error) {
	return freeSub(userID), nil
}

func (m *mockSubUC) ChangeTier(ctx context.Context, userID string, name model.TierName) (*model.UserSubscription, error) {
	if m.ChangeTierFunc != nil {
		return m.ChangeTierFunc(ctx, userID, name)
	}
	sub := freeSub(userID)
	sub.Tier = name
	return sub, nil
}

func (m *mockSubUC) CanPerform(ctx context.Context, userID string, kind model.ActionKind) (bool, error) {
	return true, nil
}

func (m *mockSubUC) RecordUsage(ctx context.Context, userID string, kind model.ActionKind) (*model.UserSubscription, error) {
	return freeSub(userID), nil
}

func (m *mockSubUC) GrantBonus(ctx context.Context, userID string, credits int) (*model.UserSubscription, error) {
	if m.GrantBonusFunc != nil {
		return m.GrantBonusFunc(ctx, userID, credits)
	}
	if credits <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	sub := freeSub(userID)
	sub.Quota.BonusAllowance += credits
	return sub, nil
}

func (m *mockSubUC) HasCapability(ctx context.Context, userID string, c model.Capability) (bool, error) {
	return false, nil
}

func (m *mockSubUC) UsageHistory(ctx context.Context, userID string, since time.Time) ([]*model.UsageRecord, error) {
	return nil, nil
}

func (m *mockSubUC) ResetDue(ctx context.Context, limit int) (int, error) { return 0, nil }
func (m *mockSubUC) PruneUsage(ctx context.Context) (int64, error)        { return 0, nil }
func (m *mockSubUC) CountByTier(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type mockScanUC struct {
	ScanImageFunc    func(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error)
	StartScanFunc    func(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error)
	CompleteScanFunc func(ctx context.Context, scan *model.ScanResult, image []byte, mime string) (*model.ScanResult, error)
	FindFunc         func(ctx context.Context, userID, scanID string) (*model.ScanResult, error)
	HistoryFunc      func(ctx context.Context, userID string, limit int) ([]*model.ScanResult, error)
}

var _ usecase.ScanUseCase = (*mockScanUC)(nil)

func (m *mockScanUC) ScanImage(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error) {
	if m.ScanImageFunc != nil {
		return m.ScanImageFunc(ctx, userID, image, mime)
	}
	return &model.ScanResult{ID: "scan-1", UserID: userID, Status: model.ScanStatusCompleted}, nil
}

func (m *mockScanUC) StartScan(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error) {
	if m.StartScanFunc != nil {
		return m.StartScanFunc(ctx, userID, image, mime)
	}
	return m.ScanImage(ctx, userID, image, mime)
}

func (m *mockScanUC) CompleteScan(ctx context.Context, scan *model.ScanResult, image []byte, mime string) (*model.ScanResult, error) {
	if m.CompleteScanFunc != nil {
		return m.CompleteScanFunc(ctx, scan, image, mime)
	}
	return scan, nil
}

func (m *mockScanUC) Find(ctx context.Context, userID, scanID string) (*model.ScanResult, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, userID, scanID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockScanUC) History(ctx context.Context, userID string, limit int) ([]*model.ScanResult, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit)
	}
	return nil, nil
}

type mockRecipeUC struct {
	SuggestFunc    func(ctx context.Context, userID string, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error)
	SaveToBookFunc func(ctx context.Context, userID string, r model.Recipe) (*model.SavedRecipe, error)
}

var _ usecase.RecipeUseCase = (*mockRecipeUC)(nil)

func (m *mockRecipeUC) Suggest(ctx context.Context, userID string, ingredients []string, prefs adapter.RecipePrefs) ([]model.Recipe, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, userID, ingredients, prefs)
	}
	return []model.Recipe{{Title: "Tomato Soup"}}, nil
}

func (m *mockRecipeUC) SaveToBook(ctx context.Context, userID string, r model.Recipe) (*model.SavedRecipe, error) {
	if m.SaveToBookFunc != nil {
		return m.SaveToBookFunc(ctx, userID, r)
	}
	return nil, domain.ErrFeatureDenied
}

func (m *mockRecipeUC) Book(ctx context.Context, userID string) ([]*model.SavedRecipe, error) {
	return nil, domain.ErrFeatureDenied
}

func (m *mockRecipeUC) RemoveFromBook(ctx context.Context, userID, id string) error {
	return domain.ErrFeatureDenied
}

type fakeLocker struct {
	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	unlocks     int
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.TryLockFunc != nil {
		return f.TryLockFunc(ctx, key, ttl)
	}
	return "token-1", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.unlocks++
	return nil
}

type mockMealPlanUC struct{}

var _ usecase.MealPlanUseCase = (*mockMealPlanUC)(nil)

func (m *mockMealPlanUC) Schedule(ctx context.Context, userID string, date time.Time, slot model.MealSlot, savedRecipeID, title string) (*model.MealPlanEntry, error) {
	return nil, domain.ErrFeatureDenied
}

func (m *mockMealPlanUC) Week(ctx context.Context, userID string, from time.Time) ([]*model.MealPlanEntry, error) {
	return nil, domain.ErrFeatureDenied
}

func (m *mockMealPlanUC) Remove(ctx context.Context, userID, id string) error {
	return domain.ErrFeatureDenied
}
