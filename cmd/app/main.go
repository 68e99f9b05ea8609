package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"installment-tracker/internal/adapters/cli"
	"installment-tracker/internal/adapters/repl"
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

	logger := newLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	store := cache.New()
	coord := syncer.New(client, store, logger)
	svc := app.NewAppService(client, coord, store, logger)

	ctx := context.Background()

	// Arguments present → one-shot CLI mode; otherwise interactive REPL.
	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:], cfg.Username, cfg.Password)
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), cfg.Username, cfg.Password)
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		return logger
	}
	// The REPL owns stdout; keep structured logs on stderr.
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
