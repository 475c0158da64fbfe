package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aviralrabbit1/nextNotes/internal/server/app"
	"github.com/aviralrabbit1/nextNotes/internal/server/config"
	"github.com/aviralrabbit1/nextNotes/internal/shared/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	application, err := app.New(cfg, version, buildDate, logger)
	if err != nil {
		logger.Fatal("failed to init server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := application.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
