// Package storage persists the application state in SQLite: one
// key-value row per logical JSON blob (catalog+cart+ledger, event
// list, active event id) plus a table of recorded snapshots driving
// the export queue.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fairpos/internal/core"
	"fairpos/internal/export"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements store.Repository. A key that has never been written
// reports ok=false rather than an error.
func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %q: %w", key, err)
	}
	return value, true, nil
}

// Save implements store.Repository.
func (r *SQLiteRepository) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// SnapshotRecord is a recorded rollup awaiting (or done with) sheet
// sync. The payload is the immutable snapshot copy plus the export
// rows frozen at record time; recomputing either from the live ledger
// later could disagree with what was exported.
type SnapshotRecord struct {
	Snapshot  core.Snapshot
	Rows      []export.Row
	Synced    bool
	SyncError bool
}

type snapshotPayload struct {
	Snapshot core.Snapshot `json:"snapshot"`
	Rows     []export.Row  `json:"rows"`
}

// SaveSnapshot stores an immutable snapshot copy with its export rows,
// pending sync. Saving the same snapshot id twice is a no-op so
// replays cannot reset the synced flag.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, snap core.Snapshot, rows []export.Row) error {
	payload, err := json.Marshal(snapshotPayload{Snapshot: snap, Rows: rows})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, event_id, created_at, payload, synced, sync_error)
		VALUES (?, ?, ?, ?, 0, 0)
		ON CONFLICT(id) DO NOTHING`,
		snap.ID, snap.Event.ID, snap.CreatedAt.UTC().Format(time.RFC3339), payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot recorded",
		"snapshot_id", snap.ID,
		"event_id", snap.Event.ID,
		"lines", len(snap.Lines),
		"gross_cents", snap.Totals.Gross.Cents)
	return nil
}

// GetSnapshot returns a recorded snapshot with its sync state.
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id string) (SnapshotRecord, error) {
	var (
		payload            []byte
		synced, syncFailed int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, synced, sync_error FROM snapshots WHERE id = ?`, id).
		Scan(&payload, &synced, &syncFailed)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, core.ErrNotFound
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot: %w", err)
	}
	var p snapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return SnapshotRecord{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return SnapshotRecord{
		Snapshot:  p.Snapshot,
		Rows:      p.Rows,
		Synced:    synced != 0,
		SyncError: syncFailed != 0,
	}, nil
}

// ListSnapshots returns recorded snapshots, newest first, optionally
// filtered by event.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, eventID string) ([]SnapshotRecord, error) {
	query := `SELECT payload, synced, sync_error FROM snapshots ORDER BY created_at DESC`
	args := []any{}
	if eventID != "" {
		query = `SELECT payload, synced, sync_error FROM snapshots WHERE event_id = ? ORDER BY created_at DESC`
		args = append(args, eventID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var (
			payload            []byte
			synced, syncFailed int
		)
		if err := rows.Scan(&payload, &synced, &syncFailed); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var p snapshotPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, SnapshotRecord{
			Snapshot:  p.Snapshot,
			Rows:      p.Rows,
			Synced:    synced != 0,
			SyncError: syncFailed != 0,
		})
	}
	return out, rows.Err()
}

// PendingSnapshots returns ids of snapshots not yet synced, oldest
// first, for the worker's catch-up sweep.
func (r *SQLiteRepository) PendingSnapshots(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM snapshots WHERE synced = 0 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) MarkSnapshotSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE snapshots SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark snapshot synced: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot marked as synced", "snapshot_id", id)
	return nil
}

func (r *SQLiteRepository) MarkSnapshotSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE snapshots SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark snapshot sync error: %w", err)
	}
	slog.WarnContext(ctx, "Snapshot marked with sync error", "snapshot_id", id)
	return nil
}
