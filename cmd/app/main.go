// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lovepage-backend/internal/config"
	"lovepage-backend/internal/infra/api"
	pg "lovepage-backend/internal/infra/db/postgres"
	"lovepage-backend/internal/infra/logging"
	"lovepage-backend/internal/infra/metrics"
	"lovepage-backend/internal/infra/payment"
	red "lovepage-backend/internal/infra/redis"
	"lovepage-backend/internal/infra/sched"
	"lovepage-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Payment processor ----
	gateway := payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey)
	sigMode := payment.SignatureModeEnforced
	if cfg.Payment.Stripe.WebhookSecret == "" {
		// LoadConfig only lets this through in dev with the explicit opt-in.
		sigMode = payment.SignatureModeDisabled
		logger.Warn().Msg("webhook signature verification DISABLED (dev only)")
	}
	verifier := payment.NewStripeWebhookVerifier(cfg.Payment.Stripe.WebhookSecret, sigMode)

	// ---- Repositories ----
	pageRepo := pg.NewGiftPageRepo(pool)
	entRepo := pg.NewEntitlementRepo(pool)
	codeRepo := pg.NewActivationCodeRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	checkoutUC := usecase.NewCheckoutUseCase(gateway, cfg.Payment.Stripe, cfg.Runtime.Dev, logger)
	activationUC := usecase.NewActivationUseCase(entRepo, pageRepo, gateway, verifier, txManager, logger)
	codeUC := usecase.NewCodeUseCase(codeRepo, activationUC, txManager, logger)
	sweepUC := usecase.NewSweepUseCase(entRepo, pageRepo, txManager, logger)

	// ---- HTTP server ----
	srv := api.NewServer(checkoutUC, activationUC, codeUC, sweepUC, api.ServerOpts{
		Limiter:      rateLimiter,
		CodeAttempts: cfg.RateLimit.CodeAttempts,
		CodeWindow:   cfg.RateLimit.Window,
		AdminAPIKey:  cfg.Server.AdminAPIKey,
	}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Sweeper.Interval, sweepUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
