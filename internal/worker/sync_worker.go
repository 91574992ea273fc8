// Package worker pushes recorded snapshots to the spreadsheet backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fairpos/internal/amqp"
	"fairpos/internal/core"
	"fairpos/internal/sheets"
	"fairpos/internal/storage"
)

// SnapshotLoader is the storage slice the worker needs. Satisfied by
// storage.SQLiteRepository and storage.MemoryRepository.
type SnapshotLoader interface {
	GetSnapshot(ctx context.Context, id string) (storage.SnapshotRecord, error)
	PendingSnapshots(ctx context.Context, limit int) ([]string, error)
	MarkSnapshotSynced(ctx context.Context, id string) error
	MarkSnapshotSyncError(ctx context.Context, id string) error
}

// SyncWorker appends recorded snapshot rows to the configured sheet.
// Processing is idempotent per snapshot: an already-synced snapshot is
// skipped, so redelivered or replayed messages cannot double-append.
type SyncWorker struct {
	storage   SnapshotLoader
	appender  sheets.RowAppender
	batchSize int
}

func NewSyncWorker(storage SnapshotLoader, appender sheets.RowAppender, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one snapshot sync message from AMQP.
// An unknown snapshot id is dropped rather than requeued; it will
// never resolve.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "snapshot_id", msg.SnapshotID)

	if err := w.syncSnapshot(ctx, msg.SnapshotID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Sync message for unknown snapshot, dropping",
				"snapshot_id", msg.SnapshotID)
			return nil
		}
		return err
	}
	return nil
}

// ProcessPendingSnapshots re-drives snapshots that never got synced,
// typically because the AMQP message was lost or the worker was down.
func (w *SyncWorker) ProcessPendingSnapshots(ctx context.Context) error {
	ids, err := w.storage.PendingSnapshots(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending snapshots: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending snapshots", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncSnapshot(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync snapshot", "snapshot_id", id, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending backlog once at worker
// startup, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	ids, err := w.storage.PendingSnapshots(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending snapshots for startup check: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending snapshots found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending snapshots on startup, processing...",
		"count", len(ids))

	synced := 0
	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncSnapshot(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync snapshot during startup",
				"snapshot_id", id, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(ids),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) syncSnapshot(ctx context.Context, id string) error {
	rec, err := w.storage.GetSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf("get snapshot %s: %w", id, err)
	}

	if rec.Synced {
		slog.InfoContext(ctx, "Snapshot already synced, skipping", "snapshot_id", id)
		return nil
	}

	if err := w.appender.AppendRows(ctx, rec.Rows); err != nil {
		if markErr := w.storage.MarkSnapshotSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"snapshot_id", id, "error", markErr)
		}
		return fmt.Errorf("append rows: %w", err)
	}

	if err := w.storage.MarkSnapshotSynced(ctx, id); err != nil {
		// The append succeeded; don't fail the message over bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as synced", "snapshot_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced snapshot",
		"snapshot_id", id,
		"event_id", rec.Snapshot.Event.ID,
		"rows", len(rec.Rows),
		"gross_cents", rec.Snapshot.Totals.Gross.Cents)

	return nil
}
