// Package main runs the effort estimation service: complexity scoring,
// throughput calibration and Monte-Carlo sprint forecasting for ERP
// module implementations, exposed over HTTP.
//
//	@title			Effort Estimator API
//	@version		1.0
//	@description	Calibrated Monte-Carlo effort forecasts for ERP module implementations.
//	@BasePath		/api/v1
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sprintforge/effort-estimator/internal/cache"
	"github.com/sprintforge/effort-estimator/internal/config"
	"github.com/sprintforge/effort-estimator/internal/database"
	"github.com/sprintforge/effort-estimator/internal/errors"
	"github.com/sprintforge/effort-estimator/internal/forecast"
	"github.com/sprintforge/effort-estimator/internal/monitoring"
)

func main() {
	logger := monitoring.NewLogger()
	slog.SetDefault(logger.Logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", errors.NewConfigurationError("environment rejected", err))
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)
	slog.SetDefault(logger.Logger)

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(db, "database")

	repo := database.NewRepository(db)

	if cfg.SeedOnStart {
		if err := database.Seed(repo); err != nil {
			slog.Error("Failed to seed reference dataset", "error", err)
			os.Exit(1)
		}
		slog.Info("Reference dataset loaded")
	}

	metrics := monitoring.NewMetrics()
	svc := forecast.NewService(repo, metrics, logger,
		cfg.Calibration(), cfg.Simulation(0), cfg.Seed, cfg.SeedSet)

	s := &server{
		cfg:      cfg,
		db:       db,
		repo:     repo,
		svc:      svc,
		appCache: cache.NewCache(cfg.CacheTTL),
		metrics:  metrics,
		logger:   logger,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(s),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
