package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emotionchart/internal/config"
	"emotionchart/internal/logger"
	"emotionchart/internal/server"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Warn("Invalid logging configuration, using defaults", map[string]interface{}{"error": err.Error()})
	}

	log := logger.For(logger.ComponentServer)
	log.Info("Starting emotion chart service", map[string]interface{}{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"version":     config.GetVersion(),
	})

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create server", err)
	}
	defer srv.Close()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // exports render every artifact
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("HTTP server error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}
	// hijacked websocket connections are not tracked by http.Server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Live session shutdown error", err)
	}

	log.Info("Server stopped")
}
