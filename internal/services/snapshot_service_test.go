package services

import (
	"context"
	"errors"
	"testing"

	"fairpos/internal/core"
	"fairpos/internal/storage"
	"fairpos/internal/store"
)

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishSnapshotSync(_ context.Context, snapshotID string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, snapshotID)
	return nil
}

func newTestService(t *testing.T) (*SnapshotService, *store.Store, *store.EventRegistry, *storage.MemoryRepository, *fakePublisher) {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	st := store.New(repo)
	if err := st.Open(ctx); err != nil {
		t.Fatalf("open store: %v", err)
	}
	events := store.NewEventRegistry(repo)
	if err := events.Open(ctx); err != nil {
		t.Fatalf("open events: %v", err)
	}

	pub := &fakePublisher{}
	return NewSnapshotService(st, events, repo, pub), st, events, repo, pub
}

func sellOne(t *testing.T, st *store.Store, name string, cents int64, qty int) {
	t.Helper()
	ctx := context.Background()
	if _, err := st.AddCartLine(ctx, store.CartLineInput{
		Name:      name,
		UnitPrice: core.Money{Cents: cents},
		Qty:       qty,
	}); err != nil {
		t.Fatalf("add cart line: %v", err)
	}
	if _, err := st.CheckoutCart(ctx, "", ""); err != nil {
		t.Fatalf("checkout: %v", err)
	}
}

func TestLiveRollupRequiresActiveEvent(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if _, err := svc.LiveRollup(context.Background()); !errors.Is(err, core.ErrNoActiveEvent) {
		t.Fatalf("expected ErrNoActiveEvent, got %v", err)
	}
}

func TestRecordSnapshotPersistsAndPublishes(t *testing.T) {
	svc, st, events, repo, pub := newTestService(t)
	ctx := context.Background()

	if _, err := events.StartEvent(ctx, store.StartEventInput{Name: "Fall Craft Fair"}); err != nil {
		t.Fatalf("start event: %v", err)
	}
	sellOne(t, st, "Keychain", 800, 3)

	snap, err := svc.RecordSnapshot(ctx)
	if err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	if snap.Totals.Gross.Cents != 2400 {
		t.Fatalf("gross = %d, want 2400", snap.Totals.Gross.Cents)
	}

	rec, err := repo.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	if rec.Synced {
		t.Fatalf("new snapshot should be pending")
	}
	if len(pub.published) != 1 || pub.published[0] != snap.ID {
		t.Fatalf("expected one publish for %s, got %v", snap.ID, pub.published)
	}
}

func TestRecordSnapshotSurvivesPublishFailure(t *testing.T) {
	svc, st, events, repo, pub := newTestService(t)
	ctx := context.Background()
	pub.err = errors.New("broker down")

	if _, err := events.StartEvent(ctx, store.StartEventInput{Name: "Market"}); err != nil {
		t.Fatalf("start event: %v", err)
	}
	sellOne(t, st, "Sticker", 300, 1)

	snap, err := svc.RecordSnapshot(ctx)
	if err != nil {
		t.Fatalf("record should succeed despite publish failure: %v", err)
	}

	// Still pending, so the worker's sweep picks it up later.
	ids, err := repo.PendingSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(ids) != 1 || ids[0] != snap.ID {
		t.Fatalf("snapshot should be pending, got %v", ids)
	}
}

func TestRecordedSnapshotIsImmutable(t *testing.T) {
	svc, st, events, repo, _ := newTestService(t)
	ctx := context.Background()

	if _, err := events.StartEvent(ctx, store.StartEventInput{Name: "Market"}); err != nil {
		t.Fatalf("start event: %v", err)
	}
	sellOne(t, st, "Keychain", 800, 2)

	snap, err := svc.RecordSnapshot(ctx)
	if err != nil {
		t.Fatalf("record snapshot: %v", err)
	}

	// Delete the sale after recording; the stored copy must not change.
	sales := st.Sales()
	if len(sales) != 1 {
		t.Fatalf("expected one sale, got %d", len(sales))
	}
	if err := st.DeleteSale(ctx, sales[0].ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}

	rec, err := repo.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if rec.Snapshot.Totals.Gross.Cents != 1600 {
		t.Fatalf("recorded gross changed to %d", rec.Snapshot.Totals.Gross.Cents)
	}

	live, err := svc.LiveRollup(ctx)
	if err != nil {
		t.Fatalf("live rollup: %v", err)
	}
	if live.Totals.Gross.Cents != 0 {
		t.Fatalf("live gross = %d, want 0 after delete", live.Totals.Gross.Cents)
	}
}

func TestRollupForUnknownEvent(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if _, err := svc.RollupFor(context.Background(), "evt-missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
