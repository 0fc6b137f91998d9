package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/generator"
	"github.com/creature-forge/internal/handler"
	"github.com/creature-forge/internal/kafka"
	"github.com/creature-forge/internal/redis"
	"github.com/creature-forge/internal/service"
	"github.com/creature-forge/internal/store"
	"github.com/creature-forge/internal/websocket"
	"github.com/creature-forge/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the local store
	logger.Info("opening store", "path", cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Initialize the creature generator
	names := generator.NewNamesClient(&cfg.Generator, logger)
	gen := generator.New(names, nil)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the game service
	gameService := service.NewGameService(st, gen, &cfg.Game, logger)
	gameService.SetHub(wsHub)

	// Seed the token balance and profit counters on first run
	if err := gameService.EnsureDefaults(ctx); err != nil {
		logger.Error("failed to seed defaults", "error", err)
		os.Exit(1)
	}

	// Initialize the Redis leaderboard mirror
	var syncWorker *worker.SyncWorker
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		mirror, err := redis.NewMirror(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without mirror", "error", err)
		} else {
			defer mirror.Close()
			gameService.SetMirror(mirror)

			syncWorker = worker.NewSyncWorker(st, mirror, &cfg.Sync, logger)

			// Rebuild the mirror from the store on startup (recovery)
			logger.Info("rebuilding leaderboard mirror from store")
			if err := syncWorker.RebuildMirror(ctx); err != nil {
				logger.Warn("failed to rebuild mirror on startup", "error", err)
			}

			if cfg.Sync.Enabled {
				if err := syncWorker.Start(ctx); err != nil {
					logger.Error("failed to start sync worker", "error", err)
					os.Exit(1)
				}
			}
		}
	}

	// Initialize Kafka producer for the game-event stream
	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka producer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaProducer, err = kafka.NewProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka producer, continuing without Kafka", "error", err)
			kafkaProducer = nil
		} else {
			gameService.SetProducer(kafkaProducer)
			logger.Info("Kafka producer started successfully")
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(gameService, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka producer
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("failed to stop Kafka producer", "error", err)
		}
	}

	// Stop sync worker
	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Error("failed to stop sync worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
