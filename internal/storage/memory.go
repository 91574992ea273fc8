package storage

import (
	"context"
	"sync"

	"fairpos/internal/core"
	"fairpos/internal/export"
)

// MemoryRepository keeps everything in maps. It backs tests and the
// "memory" data backend, where state lives only for the process.
type MemoryRepository struct {
	mu        sync.Mutex
	kv        map[string][]byte
	snapshots map[string]SnapshotRecord
	order     []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		kv:        make(map[string][]byte),
		snapshots: make(map[string]SnapshotRecord),
	}
}

func (r *MemoryRepository) Load(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (r *MemoryRepository) Save(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kv[key] = append([]byte(nil), value...)
	return nil
}

func (r *MemoryRepository) SaveSnapshot(_ context.Context, snap core.Snapshot, rows []export.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snapshots[snap.ID]; ok {
		return nil
	}
	r.snapshots[snap.ID] = SnapshotRecord{
		Snapshot: snap.Clone(),
		Rows:     append([]export.Row(nil), rows...),
	}
	r.order = append(r.order, snap.ID)
	return nil
}

func (r *MemoryRepository) GetSnapshot(_ context.Context, id string) (SnapshotRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.snapshots[id]
	if !ok {
		return SnapshotRecord{}, core.ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) ListSnapshots(_ context.Context, eventID string) ([]SnapshotRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SnapshotRecord
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.snapshots[r.order[i]]
		if eventID != "" && rec.Snapshot.Event.ID != eventID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryRepository) PendingSnapshots(_ context.Context, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, id := range r.order {
		if len(ids) >= limit {
			break
		}
		if !r.snapshots[id].Synced {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) MarkSnapshotSynced(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.snapshots[id]
	if !ok {
		return core.ErrNotFound
	}
	rec.Synced = true
	rec.SyncError = false
	r.snapshots[id] = rec
	return nil
}

func (r *MemoryRepository) MarkSnapshotSyncError(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.snapshots[id]
	if !ok {
		return core.ErrNotFound
	}
	rec.SyncError = true
	r.snapshots[id] = rec
	return nil
}
