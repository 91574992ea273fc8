package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fairpos/internal/core"
	"fairpos/internal/export"
)

// repository is the surface both backends share.
type repository interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	SaveSnapshot(ctx context.Context, snap core.Snapshot, rows []export.Row) error
	GetSnapshot(ctx context.Context, id string) (SnapshotRecord, error)
	ListSnapshots(ctx context.Context, eventID string) ([]SnapshotRecord, error)
	PendingSnapshots(ctx context.Context, limit int) ([]string, error)
	MarkSnapshotSynced(ctx context.Context, id string) error
	MarkSnapshotSyncError(ctx context.Context, id string) error
}

func testSnapshot(id, eventID string, createdAt time.Time) (core.Snapshot, []export.Row) {
	snap := core.Snapshot{
		ID:        id,
		CreatedAt: createdAt,
		Event: core.Event{
			ID:        eventID,
			Name:      "Fall Craft Fair",
			StartedAt: createdAt.Add(-time.Hour),
		},
		Lines: []core.SnapshotLine{
			{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 3, Revenue: core.Money{Cents: 2400}},
		},
		Totals: core.SnapshotTotals{Gross: core.Money{Cents: 2400}},
	}
	rows := []export.Row{
		{
			EventName:        "Fall Craft Fair",
			EventID:          eventID,
			SalesOrderNumber: "FallCraftFair-241005-1400",
			Total:            core.Money{Cents: 2400},
			ItemsList:        "3× Keychain",
		},
	}
	return snap, rows
}

func runRepositoryTests(t *testing.T, repo repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("kv", func(t *testing.T) {
		if _, ok, err := repo.Load(ctx, "missing"); err != nil || ok {
			t.Fatalf("Load(missing) = ok=%v err=%v, want absent", ok, err)
		}
		if err := repo.Save(ctx, "store", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := repo.Save(ctx, "store", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		v, ok, err := repo.Load(ctx, "store")
		if err != nil || !ok {
			t.Fatalf("load: ok=%v err=%v", ok, err)
		}
		if string(v) != `{"v":2}` {
			t.Fatalf("value = %s, want latest write", v)
		}
	})

	t.Run("snapshot lifecycle", func(t *testing.T) {
		base := time.Date(2024, 10, 5, 14, 0, 0, 0, time.UTC)
		snapA, rowsA := testSnapshot("snap_evt1_1", "evt1", base)
		snapB, rowsB := testSnapshot("snap_evt1_2", "evt1", base.Add(time.Minute))
		snapC, rowsC := testSnapshot("snap_evt2_1", "evt2", base.Add(2*time.Minute))

		for _, s := range []struct {
			snap core.Snapshot
			rows []export.Row
		}{{snapA, rowsA}, {snapB, rowsB}, {snapC, rowsC}} {
			if err := repo.SaveSnapshot(ctx, s.snap, s.rows); err != nil {
				t.Fatalf("save snapshot %s: %v", s.snap.ID, err)
			}
		}

		rec, err := repo.GetSnapshot(ctx, snapA.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec.Synced || rec.SyncError {
			t.Fatalf("fresh snapshot should be pending: %+v", rec)
		}
		if len(rec.Rows) != 1 || rec.Rows[0].Total.Cents != 2400 {
			t.Fatalf("rows not preserved: %+v", rec.Rows)
		}
		if rec.Snapshot.Totals.Gross.Cents != 2400 {
			t.Fatalf("gross = %d", rec.Snapshot.Totals.Gross.Cents)
		}

		if _, err := repo.GetSnapshot(ctx, "snap_nope"); err != core.ErrNotFound {
			t.Fatalf("unknown id error = %v, want ErrNotFound", err)
		}

		// Replayed save must not duplicate or reset anything.
		if err := repo.MarkSnapshotSynced(ctx, snapA.ID); err != nil {
			t.Fatalf("mark synced: %v", err)
		}
		if err := repo.SaveSnapshot(ctx, snapA, rowsA); err != nil {
			t.Fatalf("replay save: %v", err)
		}
		rec, err = repo.GetSnapshot(ctx, snapA.ID)
		if err != nil {
			t.Fatalf("get after replay: %v", err)
		}
		if !rec.Synced {
			t.Fatal("replayed save reset the synced flag")
		}

		pending, err := repo.PendingSnapshots(ctx, 10)
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		if len(pending) != 2 || pending[0] != snapB.ID || pending[1] != snapC.ID {
			t.Fatalf("pending = %v, want [%s %s] oldest first", pending, snapB.ID, snapC.ID)
		}

		if err := repo.MarkSnapshotSyncError(ctx, snapB.ID); err != nil {
			t.Fatalf("mark error: %v", err)
		}
		rec, _ = repo.GetSnapshot(ctx, snapB.ID)
		if !rec.SyncError || rec.Synced {
			t.Fatalf("sync error flags wrong: %+v", rec)
		}
		// A sync-error snapshot is still pending.
		pending, _ = repo.PendingSnapshots(ctx, 10)
		if len(pending) != 2 {
			t.Fatalf("pending after error = %v", pending)
		}

		evt1, err := repo.ListSnapshots(ctx, "evt1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(evt1) != 2 || evt1[0].Snapshot.ID != snapB.ID {
			t.Fatalf("event filter wrong, got %d records", len(evt1))
		}
		all, _ := repo.ListSnapshots(ctx, "")
		if len(all) != 3 {
			t.Fatalf("unfiltered list = %d records, want 3", len(all))
		}
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryTests(t, NewMemoryRepository())
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fairpos.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()
	runRepositoryTests(t, repo)
}
