package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/api"
	"github.com/joshnavoa/zakeke/internal/app"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("Starting Zakeke Product Catalog API",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("store_driver", string(cfg.Store.Driver)),
		zap.String("response_shape", string(cfg.Catalog.ResponseShape)),
		zap.String("customizable_mode", string(cfg.Catalog.CustomizableMode)),
	)

	// Open the backing store and wire services
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, zl)
	cancelStart()
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// Initialize router
	router := api.NewRouter(cfg, application.Deps, zl)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	zl.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	zl.Info("Server exited")
}
