package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	infraredis "foodlens/internal/infra/redis"
)

const (
	maxUploadBytes = 8*1024*1024 + 1024
	uploadLockTTL  = 30 * time.Second
)

type errorBody struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable,omitempty"`
	Upgrade     bool   `json:"upgrade,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP. Recoverable failures tell the
// client it may retry; quota and capability denials point at an upgrade.
func writeError(w http.ResponseWriter, err error) {
	msg := domain.UserMessage(err)
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: "quota_exceeded", Message: msg, Upgrade: true})
	case errors.Is(err, domain.ErrFeatureDenied):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "feature_denied", Message: msg, Upgrade: true})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: msg})
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: msg})
	case errors.Is(err, domain.ErrNoFoodDetected):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "no_food_detected", Message: msg})
	case errors.Is(err, domain.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited", Message: msg, Recoverable: true})
	case errors.Is(err, domain.ErrLockNotAcquired):
		writeJSON(w, http.StatusConflict, errorBody{Error: "upload_in_progress", Message: msg, Recoverable: true})
	case domain.Recoverable(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "temporarily_unavailable", Message: msg, Recoverable: true})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: msg})
	}
}

// ---- auth ----

type registerRequest struct {
	DeviceID string `json:"device_id"`
	Email    string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	user, err := s.userUC.RegisterDevice(r.Context(), req.DeviceID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.auth.Mint(user.ID, user.DeviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": user.ID,
		"token":   token,
	})
}

// ---- profile ----

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.userUC.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"registered_at": user.RegisteredAt,
		"dietary":       user.Dietary,
	})
}

func (s *Server) handleUpdateDietary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dietary []string `json:"dietary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	user, err := s.userUC.UpdateDietary(r.Context(), userIDFrom(r.Context()), req.Dietary)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dietary": user.Dietary})
}

// ---- stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	users, err := s.userUC.CountUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	byTier, err := s.subUC.CountByTier(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":   users,
		"by_tier": byTier,
	})
}

// ---- subscription ----

type subscriptionResponse struct {
	Tier           string     `json:"tier"`
	Remaining      int        `json:"remaining"` // -1 means unlimited
	BonusRemaining int        `json:"bonus_remaining"`
	ResetsAt       *time.Time `json:"resets_at,omitempty"`
}

func toSubscriptionResponse(sub *model.UserSubscription) subscriptionResponse {
	return subscriptionResponse{
		Tier:           string(sub.Tier),
		Remaining:      sub.Quota.Remaining(),
		BonusRemaining: sub.Quota.BonusAllowance,
		ResetsAt:       sub.Quota.PeriodResetAt,
	}
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.EnsureSubscription(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleChangeTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	sub, err := s.subUC.ChangeTier(r.Context(), userIDFrom(r.Context()), model.TierName(req.Tier))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleUsageHistory(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "since must be RFC3339"})
			return
		}
		since = parsed
	}
	recs, err := s.subUC.UsageHistory(r.Context(), userIDFrom(r.Context()), since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": recs})
}

func (s *Server) handleGrantBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credits int `json:"credits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	sub, err := s.subUC.GrantBonus(r.Context(), userIDFrom(r.Context()), req.Credits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// ---- scans ----

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	// One upload at a time per user keeps a double-tapped shutter button
	// from burning two quota charges on the same photo.
	if s.locker != nil {
		key := infraredis.UserActionKey(userID, "upload")
		token, err := s.locker.TryLock(r.Context(), key, uploadLockTTL)
		if err != nil {
			writeError(w, err)
			return
		}
		defer func() { _ = s.locker.Unlock(context.Background(), key, token) }()
	}

	mime := r.Header.Get("Content-Type")
	image, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "could not read upload"})
		return
	}

	if s.pool != nil && r.URL.Query().Get("async") == "1" {
		s.handleScanAsync(w, r, userID, image, mime)
		return
	}

	scan, err := s.scanUC.ScanImage(r.Context(), userID, image, mime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// handleScanAsync gates and persists the scan on the request, then hands the
// provider call to the worker pool. Clients poll GET /scans/{scanID}.
func (s *Server) handleScanAsync(w http.ResponseWriter, r *http.Request, userID string, image []byte, mime string) {
	scan, err := s.scanUC.StartScan(r.Context(), userID, image, mime)
	if err != nil {
		writeError(w, err)
		return
	}
	task := func(ctx context.Context) error {
		_, err := s.scanUC.CompleteScan(ctx, scan, image, mime)
		return err
	}
	if err := s.pool.Submit(task); err != nil {
		// Queue saturated; finish inline rather than losing the charge gate.
		s.log.Warn().Err(err).Msg("worker queue full, completing scan inline")
		done, err := s.scanUC.CompleteScan(r.Context(), scan, image, mime)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, done)
		return
	}
	writeJSON(w, http.StatusAccepted, scan)
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	list, err := s.scanUC.History(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": list})
}

func (s *Server) handleScanGet(w http.ResponseWriter, r *http.Request) {
	scan, err := s.scanUC.Find(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "scanID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// ---- recipes ----

type suggestRequest struct {
	Ingredients []string `json:"ingredients"`
	Dietary     []string `json:"dietary"`
	MaxResults  int      `json:"max_results"`
}

func (s *Server) handleSuggestRecipes(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	recipes, err := s.recipeUC.Suggest(r.Context(), userIDFrom(r.Context()), req.Ingredients, adapter.RecipePrefs{
		Dietary:    req.Dietary,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

func (s *Server) handleBookSave(w http.ResponseWriter, r *http.Request) {
	var recipe model.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	entry, err := s.recipeUC.SaveToBook(r.Context(), userIDFrom(r.Context()), recipe)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleBookList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.recipeUC.Book(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleBookDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.recipeUC.RemoveFromBook(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- meal plan ----

type mealScheduleRequest struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Slot          string `json:"slot"`
	SavedRecipeID string `json:"saved_recipe_id"`
	Title         string `json:"title"`
}

func (s *Server) handleMealSchedule(w http.ResponseWriter, r *http.Request) {
	var req mealScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "date must be YYYY-MM-DD"})
		return
	}
	entry, err := s.planUC.Schedule(r.Context(), userIDFrom(r.Context()), date, model.MealSlot(req.Slot), req.SavedRecipeID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleMealWeek(w http.ResponseWriter, r *http.Request) {
	from := time.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	entries, err := s.planUC.Week(r.Context(), userIDFrom(r.Context()), from)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Remove(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
