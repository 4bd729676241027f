// Command careerdesk serves the per-user file vault and the subscription
// feature checks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/careerdesk/internal/api"
	"github.com/dmitrymomot/careerdesk/internal/app"
	"github.com/dmitrymomot/careerdesk/internal/config"
	"github.com/dmitrymomot/careerdesk/internal/identity"
	"github.com/dmitrymomot/careerdesk/pkg/logger"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, api.RequestIDExtractor(), identity.LogExtractor())
	if err != nil {
		return err
	}
	defer logger.Flush(sentryFlushTimeout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		return err
	}

	log.Info("careerdesk configured",
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.Int64("upload_max_size", cfg.Storage.MaxSize),
		slog.Bool("metrics", cfg.MetricsEnabled),
	)
	return a.Run(ctx)
}
