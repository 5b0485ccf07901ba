package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/progression-engine/internal/config"
	"github.com/jwebster45206/progression-engine/internal/handlers"
	"github.com/jwebster45206/progression-engine/internal/logger"
	"github.com/jwebster45206/progression-engine/internal/middleware"
	"github.com/jwebster45206/progression-engine/internal/session"
	"github.com/jwebster45206/progression-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Progression Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend)

	var store storage.ProgressStore
	switch strings.ToLower(cfg.StorageBackend) {
	case "redis":
		store = storage.NewRedisProgressStore(cfg.RedisURL, log)
	case "sqlite":
		store, err = storage.NewSQLiteProgressStore(cfg.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
	default:
		log.Error("Invalid storage backend", "backend", cfg.StorageBackend, "supported", []string{"redis", "sqlite"})
		os.Exit(1)
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storeCancel()
	if err := store.WaitForConnection(storeCtx); err != nil {
		log.Error("Failed to connect to progress store", "error", err)
		os.Exit(1)
	}
	log.Info("Progress store connection established")

	provider := storage.NewFileStoryProvider(cfg.DataDir, log)
	manager := session.NewManager(provider, store, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	progressHandler := handlers.NewProgressHandler(manager, log)
	mux.Handle("/v1/progress/", progressHandler)

	storiesHandler := handlers.NewStoriesHandler(provider, log)
	mux.Handle("/v1/stories", storiesHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing progress store", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
