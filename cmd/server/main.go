package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/config"
	"github.com/knotless/knot-backend/internal/infrastructure/container"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize dependency injection container
	app, err := container.NewContainer(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Error("error closing application", zap.Error(err))
		}
	}()

	// Start the expiry watcher before taking traffic so lapsed proposals
	// are cleaned up from the first request on.
	if err := app.Watcher.Start(context.Background()); err != nil {
		app.Logger.Error("failed to start expiry watcher", zap.Error(err))
		os.Exit(1)
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		if err := app.Server.Start(); err != nil {
			app.Logger.Error("server error", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	app.Logger.Info("server started",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Wait for interrupt signal
	<-quit

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Logger.Error("server shutdown error", zap.Error(err))
		os.Exit(1)
	}

	app.Watcher.Stop()

	app.Logger.Info("server exited properly")
}
