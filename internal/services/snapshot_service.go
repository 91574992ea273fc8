// Package services orchestrates operations that span the store, the
// snapshot storage and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fairpos/internal/core"
	"fairpos/internal/export"
	"fairpos/internal/storage"
	"fairpos/internal/store"
)

// SnapshotStore is the slice of the storage layer the service needs.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap core.Snapshot, rows []export.Row) error
	GetSnapshot(ctx context.Context, id string) (storage.SnapshotRecord, error)
	ListSnapshots(ctx context.Context, eventID string) ([]storage.SnapshotRecord, error)
}

// SyncPublisher enqueues a snapshot for asynchronous spreadsheet sync.
type SyncPublisher interface {
	PublishSnapshotSync(ctx context.Context, snapshotID string) error
}

// SnapshotService computes rollups over the sales ledger and records
// immutable snapshots of them.
type SnapshotService struct {
	store     *store.Store
	events    *store.EventRegistry
	snapshots SnapshotStore
	publisher SyncPublisher
	now       func() time.Time
}

func NewSnapshotService(st *store.Store, events *store.EventRegistry, snapshots SnapshotStore, publisher SyncPublisher) *SnapshotService {
	return &SnapshotService{
		store:     st,
		events:    events,
		snapshots: snapshots,
		publisher: publisher,
		now:       time.Now,
	}
}

// LiveRollup recomputes the active event's rollup from the current
// ledger. Nothing is persisted.
func (s *SnapshotService) LiveRollup(ctx context.Context) (core.Snapshot, error) {
	evt, ok := s.events.ActiveEvent()
	if !ok {
		return core.Snapshot{}, core.ErrNoActiveEvent
	}
	return core.ComputeRollup(evt, s.store.Sales(), s.now()), nil
}

// RollupFor recomputes the rollup for any known event, ended or not.
func (s *SnapshotService) RollupFor(ctx context.Context, eventID string) (core.Snapshot, error) {
	evt, ok := s.events.Get(eventID)
	if !ok {
		return core.Snapshot{}, core.ErrNotFound
	}
	return core.ComputeRollup(evt, s.store.Sales(), s.now()), nil
}

// RecordSnapshot freezes the active event's rollup and its export rows
// into storage and queues the snapshot for spreadsheet sync. The
// recorded copy never changes even if sales are later deleted, and the
// rows carry resolved fabric names so the worker needs no catalog
// access. A publish failure is logged but does not fail the request
// since the worker sweeps pending snapshots anyway.
func (s *SnapshotService) RecordSnapshot(ctx context.Context) (core.Snapshot, error) {
	evt, ok := s.events.ActiveEvent()
	if !ok {
		return core.Snapshot{}, core.ErrNoActiveEvent
	}

	sales := s.store.Sales()
	snap := core.ComputeRollup(evt, sales, s.now())
	rows, err := export.BuildRows(evt, core.SalesInWindow(evt, sales), s.store.FabricName)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("build export rows: %w", err)
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap, rows); err != nil {
		return core.Snapshot{}, fmt.Errorf("record snapshot: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message",
			"snapshot_id", snap.ID)
		return snap, nil
	}
	if err := s.publisher.PublishSnapshotSync(ctx, snap.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"snapshot_id", snap.ID, "error", err)
	}
	return snap, nil
}

// Snapshots lists recorded snapshots, optionally filtered by event.
func (s *SnapshotService) Snapshots(ctx context.Context, eventID string) ([]storage.SnapshotRecord, error) {
	return s.snapshots.ListSnapshots(ctx, eventID)
}

// Snapshot returns one recorded snapshot by id.
func (s *SnapshotService) Snapshot(ctx context.Context, id string) (storage.SnapshotRecord, error) {
	return s.snapshots.GetSnapshot(ctx, id)
}
