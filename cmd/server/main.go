package main

import (
	"context"
	"log"
	"net/http"

	webAdapter "installment-tracker/internal/adapters/web"
	"installment-tracker/internal/app"
	"installment-tracker/internal/cache"
	"installment-tracker/internal/config"
	"installment-tracker/internal/remote"
	"installment-tracker/internal/syncer"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	store := cache.New()
	coord := syncer.New(client, store, logger)
	svc := app.NewAppService(client, coord, store, logger)

	// Warm up when credentials are configured; the API also exposes sign-in.
	if cfg.Username != "" {
		ctx := context.Background()
		if out := svc.SignIn(ctx, cfg.Username, cfg.Password); out.OK() {
			if out := svc.RefreshSales(ctx); !out.OK() {
				logger.Warn("initial refresh failed",
					zap.String("status", string(out.Status)), zap.String("message", out.Message))
			}
		} else {
			logger.Warn("initial sign-in failed",
				zap.String("status", string(out.Status)), zap.String("message", out.Message))
		}
	}

	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, logger)

	logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
