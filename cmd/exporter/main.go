package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airmonitor/airmonitor/internal/alexa"
	"github.com/airmonitor/airmonitor/internal/api"
	"github.com/airmonitor/airmonitor/internal/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "example-config" {
		if err := config.DumpExampleConfig(os.Stdout); err != nil {
			log.Fatalf("Failed to write example config: %v", err)
		}
		return
	}

	configPath := os.Getenv("AIRMON_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Missing credentials stop the process before it listens
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.InitLogger(cfg.Logging)
	logger.Info("Starting air monitor exporter",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"state_url", cfg.Upstream.StateURL,
	)

	client := alexa.NewClient(alexa.Options{
		StateURL:    cfg.Upstream.StateURL,
		UserAgent:   cfg.Upstream.UserAgent,
		Credentials: cfg.Credentials,
		Timeout:     cfg.Upstream.Timeout(),
	}, logger)

	router := api.NewRouter(client, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully")
}
