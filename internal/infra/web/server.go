package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"foodlens/internal/config"
	"foodlens/internal/infra/metrics"
	infraredis "foodlens/internal/infra/redis"
	"foodlens/internal/infra/worker"
	"foodlens/internal/usecase"
)

type Server struct {
	userUC   usecase.UserUseCase
	subUC    usecase.SubscriptionUseCase
	scanUC   usecase.ScanUseCase
	recipeUC usecase.RecipeUseCase
	planUC   usecase.MealPlanUseCase
	auth     *AuthManager
	limiter  *infraredis.RateLimiter // nil disables upload throttling
	locker   infraredis.Locker       // nil disables upload dedupe
	pool     *worker.Pool            // nil disables async scans
	cfg      config.RateLimitConfig
	log      *zerolog.Logger
}

func NewServer(
	userUC usecase.UserUseCase,
	subUC usecase.SubscriptionUseCase,
	scanUC usecase.ScanUseCase,
	recipeUC usecase.RecipeUseCase,
	planUC usecase.MealPlanUseCase,
	auth *AuthManager,
	limiter *infraredis.RateLimiter,
	locker infraredis.Locker,
	pool *worker.Pool,
	cfg config.RateLimitConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		userUC:   userUC,
		subUC:    subUC,
		scanUC:   scanUC,
		recipeUC: recipeUC,
		planUC:   planUC,
		auth:     auth,
		limiter:  limiter,
		locker:   locker,
		pool:     pool,
		cfg:      cfg,
		log:      logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)
			r.Put("/me/dietary", s.handleUpdateDietary)

			r.Get("/stats", s.handleStats)

			r.Get("/subscription", s.handleSubscription)
			r.Post("/subscription/tier", s.handleChangeTier)
			r.Get("/subscription/usage", s.handleUsageHistory)
			r.Post("/subscription/bonus", s.handleGrantBonus)

			r.Route("/scans", func(r chi.Router) {
				r.With(s.scanRateLimit).Post("/", s.handleScan)
				r.Get("/", s.handleScanHistory)
				r.Get("/{scanID}", s.handleScanGet)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Post("/suggest", s.handleSuggestRecipes)
				r.Post("/book", s.handleBookSave)
				r.Get("/book", s.handleBookList)
				r.Delete("/book/{entryID}", s.handleBookDelete)
			})

			r.Route("/mealplan", func(r chi.Router) {
				r.Post("/", s.handleMealSchedule)
				r.Get("/week", s.handleMealWeek)
				r.Delete("/{entryID}", s.handleMealDelete)
			})
		})
	})

	return r
}

// scanRateLimit throttles photo uploads per user ahead of the quota gate.
func (s *Server) scanRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID := userIDFrom(r.Context())
		ok, err := s.limiter.Allow(r.Context(), infraredis.UserActionKey(userID, "scan"), s.cfg.ScansPerMinute, time.Minute)
		if err != nil {
			// Redis trouble must not block scanning.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error:       "rate_limited",
				Message:     "Too many requests. Please wait a moment.",
				Recoverable: true,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
