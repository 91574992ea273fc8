package http

import (
	"net/http"

	"fairpos/internal/core"
	"fairpos/internal/storage"
)

type snapshotResponse struct {
	Snapshot  core.Snapshot `json:"snapshot"`
	Synced    bool          `json:"synced"`
	SyncError bool          `json:"syncError"`
}

func toSnapshotResponse(rec storage.SnapshotRecord) snapshotResponse {
	return snapshotResponse{
		Snapshot:  rec.Snapshot,
		Synced:    rec.Synced,
		SyncError: rec.SyncError,
	}
}

func (s *Server) handleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.RecordSnapshot(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.logs.LogSnapshotRecorded(r.Context(), snap.ID, snap.Event.ID, snap.Totals.Gross.Cents, len(snap.Lines))
	respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	recs, err := s.snapshots.Snapshots(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	out := make([]snapshotResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toSnapshotResponse(rec))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, err := s.snapshots.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSnapshotResponse(rec))
}
