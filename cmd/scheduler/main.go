package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"

	"github.com/pennyflow/pennyflow/infra/initializer"
	"github.com/pennyflow/pennyflow/pkg/app"
	"github.com/pennyflow/pennyflow/pkg/config"
	"github.com/pennyflow/pennyflow/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(*deps, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	fiberApp := webapi.SetupApp(a, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("starting ops server", "env", cfg.Env, "address", addr)
		if err := fiberApp.Listen(addr); err != nil {
			logger.Error("ops server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during ops server shutdown", "error", err)
	}

	done := make(chan struct{})
	go func() {
		a.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("scheduler stopped")
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for job loops to stop")
	}
	return nil
}
