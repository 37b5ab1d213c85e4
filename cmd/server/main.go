package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/config"
	"github.com/cretemeteo/meteo-monitor/internal/importer"
	"github.com/cretemeteo/meteo-monitor/internal/server"
	"github.com/cretemeteo/meteo-monitor/internal/storage"
)

const version = "v0.1.0"

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Msg("Starting Meteo Monitor Server")

	// Ensure data directory exists
	dataDir := filepath.Dir(cfg.Storage.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath, logger)
	if err != nil {
		log.Fatalf("Failed to create SQLite store: %v", err)
	}

	imp := importer.New(store, cfg.Import.BatchSize, logger)
	hub := server.NewHub(logger, cfg.Server.AllowedOrigins...)

	apiHandler := server.NewAPIHandler(store, imp, hub, cfg.Server.AuthToken, cfg.Import.MaxCSVBytes, logger)

	mux := http.NewServeMux()
	apiHandler.Register(mux)
	mux.Handle("GET /ws/events", hub)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	hub.Close()
	logger.Info().Msg("Event hub closed")

	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("Store close error")
	} else {
		logger.Info().Msg("SQLiteStore closed")
	}

	logger.Info().Msg("Server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}
