package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subscription-storefront/internal/config"
	"subscription-storefront/internal/infra/db/postgres"
	"subscription-storefront/internal/infra/email"
	"subscription-storefront/internal/infra/logging"
	"subscription-storefront/internal/infra/metrics"
	"subscription-storefront/internal/infra/payment"
	red "subscription-storefront/internal/infra/redis"
	"subscription-storefront/internal/infra/sched"
	"subscription-storefront/internal/infra/storage"
	"subscription-storefront/internal/infra/web"
	"subscription-storefront/internal/infra/worker"
	"subscription-storefront/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	tokenStore := red.NewTokenStore(redisClient)
	eventLog := red.NewEventLog(redisClient)

	// ---- Repositories ----
	txManager := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepo(pool)
	planRepo := postgres.NewPlanRepoCacheDecorator(postgres.NewPlanRepo(pool), redisClient)
	subRepo := postgres.NewSubscriptionRepo(pool)
	productRepo := postgres.NewProductRepo(pool)
	downloadRepo := postgres.NewDownloadLogRepo(pool)

	// ---- Adapters ----
	fileStore, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage")
	}
	mailer, err := email.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From)
	if err != nil {
		logger.Fatal().Err(err).Msg("mailer")
	}
	gateway, err := payment.NewStripeGateway(cfg.Stripe.SecretKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("stripe")
	}

	// ---- Mail dispatch pool ----
	mailPool := worker.NewPool(cfg.Mail.Workers, logger)
	mailPool.Start(ctx)
	defer mailPool.Stop()
	queuedMailer := worker.NewQueuedMailer(mailer, mailPool, logger)

	// ---- Use cases ----
	links := usecase.MailLinks{
		Activation:    cfg.Server.BaseURL + "/auth/activate?code=%s",
		PasswordReset: cfg.Server.BaseURL + "/auth/password-reset/confirm?code=%s",
	}
	// activation mail is sent inline: a failed send must roll the signup back
	userUC := usecase.NewUserUseCase(userRepo, planRepo, subRepo, tokenStore, mailer, queuedMailer, txManager, links, cfg.Auth.TokenTTL, logger)
	subUC := usecase.NewSubscriptionUseCase(planRepo, subRepo, txManager, logger)
	planUC := usecase.NewPlanUseCase(planRepo, logger)
	productUC := usecase.NewProductUseCase(productRepo, planRepo, fileStore, logger)
	downloadUC := usecase.NewDownloadUseCase(productRepo, planRepo, subRepo, downloadRepo, txManager, logger)
	paymentUC := usecase.NewPaymentUseCase(
		userRepo, planRepo, subUC, gateway, eventLog,
		cfg.Server.BaseURL+"/payment/success?session_id={CHECKOUT_SESSION_ID}",
		cfg.Server.BaseURL+"/payment/cancel",
		logger,
	)
	statsUC := usecase.NewStatsUseCase(userUC, subUC, downloadUC, logger)

	// ---- HTTP ----
	sessions := web.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie && !cfg.Runtime.Dev, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	server := web.NewServer(cfg, userUC, subUC, planUC, productUC, paymentUC, downloadUC, statsUC, sessions, rateLimiter, fileStore, logger)

	go func() {
		if err := server.Start(cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("storefront server")
		}
	}()

	// admin API + metrics on a separate listener
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.Handle("/api/v1/", http.StripPrefix("/api/v1", server.AdminRouter()))
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: adminMux,
	}
	go func() {
		logger.Info().Int("port", cfg.Admin.Port).Msg("admin listener up")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server")
		}
	}()

	// ---- Expiry worker ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, 7, subUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}
