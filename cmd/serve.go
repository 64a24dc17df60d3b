package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/quillhq/kbsearch/api"
	"github.com/quillhq/kbsearch/internal/app"
	"github.com/quillhq/kbsearch/internal/config"
	"github.com/quillhq/kbsearch/internal/log"
)

// runServe initializes and starts the HTTP search API server.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting search API server", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	server := api.NewServer(a.Pool, a.Engine, logger)
	return server.Run(ctx, addr)
}
