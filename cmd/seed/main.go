package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"subscription-storefront/internal/config"
	"subscription-storefront/internal/domain/model"
	pg "subscription-storefront/internal/infra/db/postgres"
	"subscription-storefront/internal/infra/logging"
	"subscription-storefront/internal/usecase"
)

// schema is idempotent so seed can run on every deploy.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT FALSE,
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    registered_at TIMESTAMPTZ NOT NULL,
    last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS subscription_plans (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    tier            INT NOT NULL,
    price_cents     BIGINT NOT NULL DEFAULT 0,
    daily_limit     INT NOT NULL DEFAULT 0,
    stripe_price_id TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_subscriptions (
    id                     TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    plan_id                TEXT NOT NULL REFERENCES subscription_plans(id),
    stripe_subscription_id TEXT NOT NULL DEFAULT '',
    start_date             DATE NOT NULL,
    end_date               DATE NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_subscriptions_end_date ON user_subscriptions (end_date);

CREATE TABLE IF NOT EXISTS products (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    plan_id    TEXT NOT NULL REFERENCES subscription_plans(id),
    image_path TEXT NOT NULL DEFAULT '',
    file_path  TEXT NOT NULL DEFAULT '',
    file_name  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_download_logs (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    day        DATE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_download_logs_user_day ON user_download_logs (user_id, day);
CREATE INDEX IF NOT EXISTS idx_download_logs_day ON user_download_logs (day);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, false)
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

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	fmt.Println("schema ready")

	logger := logging.New(cfg.Log, true)
	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool), logger)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (tier=%d, limit=%d/day, price=%d cents)\n", p.Name, p.Tier, p.DailyLimit, p.PriceCents)
		}
		return
	}

	seed := []struct {
		Name       string
		Tier       model.PlanTier
		PriceCents int64
		DailyLimit int
		PriceID    string
	}{
		{"Free", model.TierFree, 0, 1, ""},
		{"Basic", model.TierBasic, 4_99, 5, "price_basic_monthly"},
		{"Pro", model.TierPro, 9_99, 20, "price_pro_monthly"},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Tier, s.PriceCents, s.DailyLimit, s.PriceID)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, tier=%d, limit=%d/day)\n", p.Name, p.ID, p.Tier, p.DailyLimit)
	}

	fmt.Println("seeding complete")
}
