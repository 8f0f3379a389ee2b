// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"foodlens/internal/config"
	"foodlens/internal/domain/ports/adapter"
	aiAdapters "foodlens/internal/infra/adapters/ai"
	pg "foodlens/internal/infra/db/postgres"
	"foodlens/internal/infra/logging"
	"foodlens/internal/infra/metrics"
	red "foodlens/internal/infra/redis"
	"foodlens/internal/infra/scheduler"
	"foodlens/internal/infra/web"
	"foodlens/internal/infra/worker"
	"foodlens/internal/retry"
	"foodlens/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI fallback, relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// Startup retries everything: a database that is still booting is not a
	// reason to crash-loop faster than its health check.
	critical := toPolicy(cfg.Retry.Critical)
	critical.Classify = func(error) bool { return true }

	// ---- Postgres ----
	pool, err := retry.DoValue(ctx, critical, func(ctx context.Context) (*pgxpool.Pool, error) {
		return pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := retry.DoValue(ctx, critical, func(ctx context.Context) (*red.Client, error) {
		return red.NewClient(ctx, &cfg.Redis)
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	quotaCache := red.NewQuotaCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	tierRepo := pg.NewTierRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	usageRepo := pg.NewUsageRepo(pool)
	scanRepo := pg.NewScanRepo(pool)
	bookRepo := pg.NewRecipeBookRepo(pool)
	planRepo := pg.NewMealPlanRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- AI adapters ----
	vision, err := buildVision(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("vision adapter: %v", err)
	}
	recipeGen, err := buildRecipeGen(cfg)
	if err != nil {
		log.Fatalf("recipe adapter: %v", err)
	}

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, tierRepo, usageRepo, txm, quotaCache, logger)
	userUC := usecase.NewUserUseCase(userRepo, subUC, logger)
	scanUC := usecase.NewScanUseCase(vision, scanRepo, subUC, toPolicy(cfg.Retry.Network), logger)
	recipeUC := usecase.NewRecipeUseCase(recipeGen, bookRepo, subUC, toPolicy(cfg.Retry.Processing), logger)
	mealUC := usecase.NewMealPlanUseCase(planRepo, bookRepo, subUC, logger)

	// ---- Background maintenance ----
	sched := scheduler.NewScheduler(cfg.Scheduler.Interval, cfg.Scheduler.ResetBatch, subUC)
	sched.Start(ctx)
	defer sched.Stop()

	workerPool := worker.NewPool(0)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	srv := web.NewServer(userUC, subUC, scanUC, recipeUC, mealUC, auth, rateLimiter, locker, workerPool, cfg.RateLimit, logger)

	logger.Info().Int("port", cfg.Server.Port).Msg("http server starting")
	if err := srv.ListenAndServe(ctx, cfg.Server.Port); err != nil {
		log.Fatalf("http server: %v", err)
	}
	logger.Info().Msg("shutdown complete")
}

func toPolicy(p config.RetryPolicyConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts:  p.MaxAttempts,
		InitialDelay: p.InitialDelay,
		MaxDelay:     p.MaxDelay,
		Multiplier:   p.Multiplier,
		Exponential:  p.Exponential,
	}
}

// buildVision assembles the detection chain: one breaker-wrapped adapter per
// configured provider, a failover router over them, and a concurrency cap on
// the outside. cfg.AI.Provider names the preferred provider.
func buildVision(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.VisionAdapter, error) {
	providers := map[string]adapter.VisionAdapter{}

	if cfg.AI.OpenAIKey != "" {
		a, err := aiAdapters.NewOpenAIVisionAdapter(cfg.AI.OpenAIKey, cfg.AI.VisionModel, "", cfg.AI.MinConfidence)
		if err != nil {
			return nil, err
		}
		providers["openai"] = aiAdapters.NewBreakerVision(a, cfg.Breaker, logger)
		log.Printf("vision provider: OpenAI model=%s", cfg.AI.VisionModel)
	}
	if cfg.AI.GeminiKey != "" {
		model := cfg.AI.VisionModel
		if cfg.AI.Provider != "gemini" {
			model = "gemini-2.0-flash"
		}
		a, err := aiAdapters.NewGeminiVisionAdapter(ctx, cfg.AI.GeminiKey, model, cfg.AI.GeminiURL, cfg.AI.MinConfidence)
		if err != nil {
			return nil, err
		}
		providers["gemini"] = aiAdapters.NewBreakerVision(a, cfg.Breaker, logger)
		log.Printf("vision provider: Gemini model=%s", model)
	}
	if cfg.AI.AWSRegion != "" {
		a, err := aiAdapters.NewRekognitionVisionAdapter(ctx, cfg.AI.AWSRegion, cfg.AI.MinConfidence)
		if err != nil {
			return nil, err
		}
		providers["rekognition"] = aiAdapters.NewBreakerVision(a, cfg.Breaker, logger)
		log.Printf("vision provider: Rekognition region=%s", cfg.AI.AWSRegion)
	}

	var vision adapter.VisionAdapter
	switch {
	case cfg.AI.Provider == "noop":
		vision = aiAdapters.NewNoopVisionAdapter()
		log.Printf("vision provider: noop")
	case len(providers) == 0 && cfg.Runtime.Dev:
		vision = aiAdapters.NewNoopVisionAdapter()
		log.Printf("no vision provider configured; falling back to noop (dev)")
	case len(providers) == 0:
		return nil, errors.New("no vision provider configured: set ai.openai_key, ai.gemini_key or ai.aws_region")
	case len(providers) == 1:
		for _, a := range providers {
			vision = a
		}
	default:
		vision = aiAdapters.NewMultiVisionAdapter(cfg.AI.Provider, providers)
	}

	return aiAdapters.NewLimitedVision(vision, cfg.AI.ConcurrentLimit), nil
}

func buildRecipeGen(cfg *config.Config) (adapter.RecipeAdapter, error) {
	if cfg.AI.Provider == "noop" || (cfg.AI.OpenAIKey == "" && cfg.Runtime.Dev) {
		log.Printf("recipe provider: noop")
		return aiAdapters.NewNoopRecipeAdapter(), nil
	}
	if cfg.AI.OpenAIKey == "" {
		return nil, errors.New("recipe generation requires ai.openai_key")
	}
	log.Printf("recipe provider: OpenAI model=%s", cfg.AI.RecipeModel)
	return aiAdapters.NewOpenAIRecipeAdapter(cfg.AI.OpenAIKey, cfg.AI.RecipeModel)
}
