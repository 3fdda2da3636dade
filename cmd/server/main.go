// Package main provides the API server entry point for the savings tracker.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/savings-tracker/internal/api"
	"github.com/savings-tracker/internal/collector"
	"github.com/savings-tracker/internal/config"
	"github.com/savings-tracker/internal/logging"
	"github.com/savings-tracker/internal/service"
	"github.com/savings-tracker/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	loc, err := cfg.Valuation.Location()
	if err != nil {
		logger.WithError(err).Fatal("Invalid valuation timezone")
	}

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// Connect to Redis when the query cache is enabled. Without it every
	// query recomputes from the ledger, which is correct just slower.
	var queryCache service.QueryCache
	if cfg.Database.Redis.Enabled {
		redis, err := storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()
		queryCache = storage.NewQueryCache(redis, cfg.Cache.TTL)
		logger.Info("Query cache enabled")
	} else {
		logger.Info("Query cache disabled, queries recompute from the ledger")
	}

	logger.Info("Database connections established")

	// Initialize repositories and services
	savingsRepo := storage.NewSavingsRepository(postgres)
	ingestService := service.NewIngestService(savingsRepo, queryCache)
	portfolioService := service.NewPortfolioService(savingsRepo, queryCache, loc)

	// Start the save-cycle scheduler when enabled
	if cfg.Scheduler.Enabled {
		collectors := collector.FromConfig(&cfg.Collectors)
		if len(collectors) == 0 {
			logger.Warn("Scheduler enabled but no collectors configured, skipping save cycles")
		} else {
			scheduler := collector.NewScheduler(loc, collectors, ingestService)
			if err := scheduler.Schedule(cfg.Scheduler.CronSpec); err != nil {
				logger.WithError(err).Fatal("Invalid save cycle cron spec")
			}
			scheduler.Start()
			defer scheduler.Stop()
			logger.WithFields(map[string]interface{}{
				"cron":       cfg.Scheduler.CronSpec,
				"collectors": len(collectors),
			}).Info("Save cycle scheduler started")
		}
	}

	// Create server
	serverConfig := &api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	server := api.NewServer(serverConfig, ingestService, portfolioService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
