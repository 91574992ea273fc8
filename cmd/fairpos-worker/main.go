package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fairpos/internal/amqp"
	"fairpos/internal/config"
	applog "fairpos/internal/log"
	"fairpos/internal/sheets"
	gsheet "fairpos/internal/sheets/google"
	"fairpos/internal/sheets/memory"
	"fairpos/internal/sheets/webhook"
	"fairpos/internal/storage"
	"fairpos/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	slog.SetDefault(logger.Logger)

	logger.Info("Starting fairpos-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker reads the snapshot table the API writes, so it always
	// goes through SQLite regardless of the API's state backend.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	appender, err := newAppender(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize export backend", "error", err, "backend", cfg.ExportBackend)
		os.Exit(1)
	}
	logger.Info("Export backend ready", "backend", cfg.ExportBackend)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, appender, cfg.SyncBatchSize)

	// Drain anything that accumulated while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeSnapshotSync(gctx, syncWorker.HandleSyncMessage)
	})

	// Periodic sweep for snapshots whose message was lost.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := syncWorker.ProcessPendingSnapshots(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// newAppender selects the spreadsheet adapter for EXPORT_BACKEND.
func newAppender(ctx context.Context, cfg *config.Config) (sheets.RowAppender, error) {
	switch cfg.ExportBackend {
	case "webhook":
		return webhook.New(webhook.Config{
			EndpointURL: cfg.SheetEndpointURL,
			SheetID:     cfg.SheetID,
			SheetName:   cfg.SheetName,
			AuthToken:   cfg.SheetAuthToken,
		})
	case "google":
		return gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.SheetName)
	default:
		// In-process sink; rows are retrievable for inspection in tests
		// and throwaway setups.
		return memory.New(), nil
	}
}
