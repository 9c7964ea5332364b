package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/StoreRatingsGo/internal/app"
	"github.com/utafrali/StoreRatingsGo/internal/config"
	"github.com/utafrali/StoreRatingsGo/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New("storeratings", "info").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	l := logger.New("storeratings", cfg.LogLevel)

	a, err := app.NewApp(ctx, cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown finished with errors", "error", err)
	}

	if runErr != nil {
		l.Error("server exited with error", "error", runErr)
		os.Exit(1)
	}
}
