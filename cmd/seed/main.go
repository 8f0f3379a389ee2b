// File: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"foodlens/internal/config"
	"foodlens/internal/domain/model"
	pg "foodlens/internal/infra/db/postgres"
)

// schema is idempotent; every statement is CREATE ... IF NOT EXISTS so the
// binary can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		registered_at TIMESTAMPTZ NOT NULL,
		last_active_at TIMESTAMPTZ NOT NULL,
		dietary TEXT[]
	);`,
	`CREATE TABLE IF NOT EXISTS subscription_tiers (
		name TEXT PRIMARY KEY,
		price_cents BIGINT NOT NULL,
		billing_period_days INT NOT NULL,
		capabilities TEXT[],
		periodic_allowance INT NOT NULL,
		bonus_allowance INT NOT NULL,
		period_seconds BIGINT NOT NULL,
		history_retention_days INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		tier TEXT NOT NULL,
		periodic_allowance INT NOT NULL,
		used INT NOT NULL,
		bonus_allowance INT NOT NULL,
		period_reset_at TIMESTAMPTZ,
		history_retention_days INT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		action_kind TEXT NOT NULL,
		quantity INT NOT NULL,
		channel TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_records_user_time
		ON usage_records (user_id, occurred_at DESC);`,
	`CREATE TABLE IF NOT EXISTS scan_results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		ingredients JSONB,
		provider TEXT NOT NULL DEFAULT '',
		processing_ms BIGINT NOT NULL DEFAULT 0,
		failure_note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_user_time
		ON scan_results (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS saved_recipes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		recipe JSONB NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS meal_plan_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_date DATE NOT NULL,
		slot TEXT NOT NULL,
		saved_recipe_id TEXT,
		title TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, plan_date, slot)
	);`,
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
	}
	fmt.Println("schema up to date")

	tierRepo := pg.NewTierRepo(pool)

	// If tiers already exist, do nothing
	existing, err := tierRepo.ListAll(ctx)
	if err != nil {
		log.Fatalf("list tiers: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d tiers already present. No changes.\n", len(existing))
		for _, t := range existing {
			fmt.Printf("  - %s (scans/day=%d, bonus=%d, price=%d cents)\n",
				t.Name, t.Defaults.PeriodicAllowance, t.Defaults.BonusAllowance, t.PriceCents)
		}
		return
	}

	for _, t := range model.DefaultTiers() {
		if err := tierRepo.Save(ctx, t); err != nil {
			log.Fatalf("save tier %q: %v", t.Name, err)
		}
		fmt.Printf("seeded: %s (scans/day=%d, bonus=%d, price=%d cents)\n",
			t.Name, t.Defaults.PeriodicAllowance, t.Defaults.BonusAllowance, t.PriceCents)
	}

	fmt.Println("✅ Seeding complete.")
}
