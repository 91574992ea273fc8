package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fairpos/internal/amqp"
	"fairpos/internal/config"
	apphttp "fairpos/internal/http"
	applog "fairpos/internal/log"
	"fairpos/internal/services"
	"fairpos/internal/storage"
	"fairpos/internal/store"
)

// repository is the persistence surface the API process needs: the
// state blobs plus the snapshot table.
type repository interface {
	store.Repository
	services.SnapshotStore
}

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repo repository
	switch cfg.DataBackend {
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		repo = storage.NewMemoryRepository()
		logger.Info("Initialized memory backend")
	}

	st := store.New(repo)
	if err := st.Open(ctx); err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	events := store.NewEventRegistry(repo)
	if err := events.Open(ctx); err != nil {
		logger.Error("Failed to open event registry", "error", err)
		os.Exit(1)
	}

	// AMQP is optional: without it snapshots still record, and the
	// worker's periodic sweep picks them up from the snapshot table.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, snapshot sync will rely on the periodic sweep", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	snapshots := services.NewSnapshotService(st, events, repo, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, st, events, snapshots)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second // exports render synchronously
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fairpos server", "port", cfg.Port, "data_backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
